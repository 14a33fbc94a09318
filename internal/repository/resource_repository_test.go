package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-access-api/internal/models"
)

func TestSessionRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "begin_date", "end_date", "created_at", "updated_at"}).
		AddRow("sess1", "Spring", now, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = ANY($1)")).
		WithArgs(pq.Array([]string{"sess1", "sess2"})).
		WillReturnRows(rows)

	sessions, err := repo.FindByIDs(context.Background(), []string{"sess1", "sess2"})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	sessions, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByInstructor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "session_id", "instructor_ids", "created_by", "created_at", "updated_at"}).
		AddRow("c1", "Go", "", "sess1", "{i1,i2}", "sec1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE $1 = ANY(instructor_ids)")).
		WithArgs("i2").
		WillReturnRows(rows)

	courses, err := repo.ListByInstructor(context.Background(), "i2")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, pq.StringArray{"i1", "i2"}, courses[0].InstructorIDs)
}

func TestCourseRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Course{ID: "c1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventRepositoryListForSessionJoinsCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "starts_at", "ends_at", "session_id", "course_id", "course_session_id", "created_by", "created_at"}).
		AddRow("ev1", "Kickoff", "", now, now, "sess1", nil, nil, "i1", now).
		AddRow("ev2", "Lab", "", now, now, nil, "c1", "sess1", "i1", now)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN courses c ON c.id = e.course_id WHERE e.session_id = $1 OR c.session_id = $1")).
		WithArgs("sess1").
		WillReturnRows(rows)

	events, err := repo.ListForSession(context.Background(), "sess1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.NotNil(t, events[1].CourseSessionID)
	assert.Equal(t, "sess1", *events[1].CourseSessionID)
	assert.Nil(t, events[1].SessionID)
}

func TestEventRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{Title: "Kickoff", CreatedBy: "i1"}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
}

func TestBookRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "author", "visibility", "session_ids", "file_path", "created_by", "created_at", "updated_at"}).
		AddRow("b1", "Go in Practice", "Butcher", "premium", "{sess1}", "books/b1.pdf", "i1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM books WHERE id = $1")).WithArgs("b1").WillReturnRows(rows)

	book, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPremium, book.Visibility)
	assert.Equal(t, pq.StringArray{"sess1"}, book.SessionIDs)
}

func TestBookRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM books WHERE id = $1")).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "b1"), sql.ErrNoRows)
}
