package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-access-api/internal/models"
)

func TestEnrollmentRepositoryFind(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "session_id", "status", "created_at", "updated_at"}).
		AddRow("e1", "s1", "sess1", "in", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_enrollments WHERE student_id = $1 AND session_id = $2")).
		WithArgs("s1", "sess1").
		WillReturnRows(rows)

	enrollment, err := repo.Find(context.Background(), "s1", "sess1")
	require.NoError(t, err)
	assert.True(t, enrollment.Admitted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindMissingPassesNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM session_enrollments").WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "s1", "sess1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "session_id", "status", "created_at", "updated_at", "student_name", "student_email", "session_title"}).
		AddRow("e1", "s1", "sess1", "pending", now, now, "Ada", "ada@example.com", "Spring")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.session_id = $1 AND e.status = $2 ORDER BY u.full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("sess1", models.EnrollmentStatusPending).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM session_enrollments e")).
		WithArgs("sess1", models.EnrollmentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		SessionID: "sess1",
		Status:    models.EnrollmentStatusPending,
		SortBy:    "student_name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada", items[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStudentWithStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "session_id", "status", "created_at", "updated_at"}).
		AddRow("e1", "s1", "sess1", "in", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND status = $2")).
		WithArgs("s1", models.EnrollmentStatusIn).
		WillReturnRows(rows)

	items, err := repo.ListByStudent(context.Background(), "s1", models.EnrollmentStatusIn)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestEnrollmentRepositoryCreateDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO session_enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{StudentID: "s1", SessionID: "sess1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE session_enrollments SET status = $3")).
		WithArgs("s1", "sess1", models.EnrollmentStatusIn, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "s1", "sess1", models.EnrollmentStatusIn)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_enrollments WHERE student_id = $1 AND session_id = $2")).
		WithArgs("s1", "sess1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "s1", "sess1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
