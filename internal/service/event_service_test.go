package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type fakeEventRepo struct {
	events  map[string]models.Event
	deleted []string
}

func (f *fakeEventRepo) ListForSession(ctx context.Context, sessionID string) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := f.events[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	if f.events == nil {
		f.events = make(map[string]models.Event)
	}
	event.ID = "ev-new"
	f.events[event.ID] = *event
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.events, id)
	return nil
}

func ptr(s string) *string { return &s }

func newEventServiceForTest(repo *fakeEventRepo) *EventService {
	return NewEventService(repo, newCourseRepo(), fakeSessions{"sess1": {ID: "sess1"}}, nil, zap.NewNop())
}

func TestEventServiceListFiltersByVisibility(t *testing.T) {
	repo := &fakeEventRepo{events: map[string]models.Event{
		"direct":    {ID: "direct", SessionID: ptr("sess1")},
		"viaCourse": {ID: "viaCourse", CourseID: ptr("c1"), CourseSessionID: ptr("sess1")},
		"other":     {ID: "other", SessionID: ptr("sess2")},
		"orphan":    {ID: "orphan", CourseID: ptr("c9")},
	}}
	svc := newEventServiceForTest(repo)

	events, err := svc.ListForSession(context.Background(), "sess1")
	require.NoError(t, err)
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"direct", "viaCourse"}, ids)
}

func TestEventServiceCreateForCourse(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := newEventServiceForTest(repo)
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	req := dto.CreateEventRequest{Title: "Lab", StartsAt: start, EndsAt: start.Add(time.Hour), CourseID: ptr("c1")}

	event, err := svc.Create(context.Background(), req, claimsFor("i1", models.RoleInstructor))
	require.NoError(t, err)
	assert.Equal(t, "i1", event.CreatedBy)
	require.NotNil(t, event.CourseSessionID)
	assert.Equal(t, "sess1", *event.CourseSessionID)

	_, err = svc.Create(context.Background(), req, claimsFor("i9", models.RoleInstructor))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestEventServiceCreateValidation(t *testing.T) {
	svc := newEventServiceForTest(&fakeEventRepo{})
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), dto.CreateEventRequest{Title: "No target", StartsAt: start, EndsAt: start}, claimsFor("sec", models.RoleSecretary))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), dto.CreateEventRequest{Title: "Backwards", StartsAt: start, EndsAt: start.Add(-time.Hour), SessionID: ptr("sess1")}, claimsFor("sec", models.RoleSecretary))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), dto.CreateEventRequest{Title: "Ghost", StartsAt: start, EndsAt: start, SessionID: ptr("ghost")}, claimsFor("sec", models.RoleSecretary))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEventServiceDeleteOwnerOrSecretary(t *testing.T) {
	repo := &fakeEventRepo{events: map[string]models.Event{
		"e1": {ID: "e1", CreatedBy: "i1"},
		"e2": {ID: "e2", CreatedBy: "i1"},
	}}
	svc := newEventServiceForTest(repo)

	err := svc.Delete(context.Background(), "e1", claimsFor("i2", models.RoleInstructor))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), "e1", claimsFor("i1", models.RoleInstructor)))
	require.NoError(t, svc.Delete(context.Background(), "e2", claimsFor("sec", models.RoleSecretary)))
	assert.Equal(t, []string{"e1", "e2"}, repo.deleted)

	assert.ErrorIs(t, svc.Delete(context.Background(), "e1", claimsFor("i1")), appErrors.ErrNotFound)
}
