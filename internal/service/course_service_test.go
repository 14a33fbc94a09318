package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type fakeCourseRepo struct {
	courses map[string]models.Course
	updated *models.Course
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.courses {
		for _, id := range c.InstructorIDs {
			if id == instructorID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	f.updated = course
	f.courses[course.ID] = *course
	return nil
}

func claimsFor(id string, roles ...models.Role) *models.Claims {
	return &models.Claims{SubjectID: id, Roles: models.RoleSet(roles), RolesPresent: true}
}

func newCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Title: "Go", SessionID: "sess1", InstructorIDs: pq.StringArray{"i1", "i2"}},
	}}
}

func TestCourseServiceUpdateByInstructorOfRecord(t *testing.T) {
	repo := newCourseRepo()
	svc := NewCourseService(repo, nil, zap.NewNop())
	title := "Advanced Go"

	course, err := svc.Update(context.Background(), "c1", dto.UpdateCourseRequest{Title: &title}, claimsFor("i2", models.RoleInstructor))
	require.NoError(t, err)
	assert.Equal(t, "Advanced Go", course.Title)
}

func TestCourseServiceUpdateByOtherInstructorDenied(t *testing.T) {
	repo := newCourseRepo()
	svc := NewCourseService(repo, nil, zap.NewNop())
	title := "Hijack"

	_, err := svc.Update(context.Background(), "c1", dto.UpdateCourseRequest{Title: &title}, claimsFor("i9", models.RoleInstructor))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Nil(t, repo.updated)
}

func TestCourseServiceInstructorListOnlyForSecretary(t *testing.T) {
	repo := newCourseRepo()
	svc := NewCourseService(repo, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "c1", dto.UpdateCourseRequest{InstructorIDs: []string{"i1"}}, claimsFor("i1", models.RoleInstructor))
	assert.ErrorIs(t, err, appErrors.ErrInsufficientRole)

	course, err := svc.Update(context.Background(), "c1", dto.UpdateCourseRequest{InstructorIDs: []string{"i3"}}, claimsFor("sec", models.RoleSecretary))
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"i3"}, course.InstructorIDs)
}

func TestCourseServiceListForInstructor(t *testing.T) {
	svc := NewCourseService(newCourseRepo(), nil, zap.NewNop())

	courses, err := svc.ListForInstructor(context.Background(), claimsFor("i1", models.RoleInstructor))
	require.NoError(t, err)
	assert.Len(t, courses, 1)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
