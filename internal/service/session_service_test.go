package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSessionServiceActiveIncludesLastDay(t *testing.T) {
	repo := fakeSessions{
		"current": {ID: "current", BeginDate: day(2024, 3, 1), EndDate: day(2024, 3, 31)},
		"past":    {ID: "past", BeginDate: day(2024, 1, 1), EndDate: day(2024, 1, 31)},
		"future":  {ID: "future", BeginDate: day(2024, 4, 1), EndDate: day(2024, 4, 30)},
	}
	svc := NewSessionService(repo, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC) }

	active, err := svc.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "current", active[0].ID)
}

func TestSessionServiceGet(t *testing.T) {
	svc := NewSessionService(fakeSessions{"sess1": {ID: "sess1"}}, nil, nil)

	session, err := svc.Get(context.Background(), "sess1")
	require.NoError(t, err)
	assert.Equal(t, "sess1", session.ID)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	resolved, err := svc.FindByIDs(context.Background(), []string{"sess1", "nope"})
	require.NoError(t, err)
	assert.Equal(t, []models.Session{{ID: "sess1"}}, resolved)
}
