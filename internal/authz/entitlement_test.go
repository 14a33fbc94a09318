package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-access-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestSessionActiveIsEndOfDayInclusive(t *testing.T) {
	session := models.Session{ID: "s1", BeginDate: date(2024, 3, 1), EndDate: date(2024, 3, 10)}

	assert.False(t, SessionActive(session, date(2024, 2, 29).Add(23*time.Hour), time.UTC))
	assert.True(t, SessionActive(session, date(2024, 3, 1), time.UTC))
	assert.True(t, SessionActive(session, date(2024, 3, 10).Add(12*time.Hour), time.UTC))
	lastMilli := time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC)
	assert.True(t, SessionActive(session, lastMilli, time.UTC))
	assert.False(t, SessionActive(session, date(2024, 3, 11), time.UTC))
}

func TestSessionActiveUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	session := models.Session{BeginDate: date(2024, 3, 1), EndDate: date(2024, 3, 10)}

	// 22:30 UTC on the 10th is already the 11th at UTC+2.
	now := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	assert.True(t, SessionActive(session, now, time.UTC))
	assert.False(t, SessionActive(session, now, loc))
}

func TestSessionActiveHonoursBeginTime(t *testing.T) {
	session := models.Session{
		BeginDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		EndDate:   date(2024, 3, 10),
	}

	assert.False(t, SessionActive(session, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.UTC))
	assert.True(t, SessionActive(session, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), time.UTC))
}

func TestEndOfDayTakesCalendarDayInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 20:00 UTC on the 10th is already the 11th at UTC+7.
	end := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	got := EndOfDay(end, loc)
	assert.Equal(t, time.Date(2024, 3, 11, 23, 59, 59, 999_999_999, loc), got)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), StartOfDay(end, loc))
}

func TestSessionActiveZeroDates(t *testing.T) {
	assert.False(t, SessionActive(models.Session{}, time.Now(), time.UTC))
}

func TestIsResourceCurrentlyActive(t *testing.T) {
	past := models.Session{BeginDate: date(2023, 1, 1), EndDate: date(2023, 1, 31)}
	current := models.Session{BeginDate: date(2024, 1, 1), EndDate: date(2024, 12, 31)}
	now := date(2024, 6, 1)

	assert.False(t, IsResourceCurrentlyActive(nil, now, time.UTC))
	assert.False(t, IsResourceCurrentlyActive([]models.Session{past}, now, time.UTC))
	assert.True(t, IsResourceCurrentlyActive([]models.Session{past, current}, now, time.UTC))
}

func TestCanReadPremiumResource(t *testing.T) {
	book := models.Book{ID: "b1", Visibility: models.VisibilityPremium, SessionIDs: []string{"s1"}, CreatedBy: "owner"}
	enrollments := []models.Enrollment{{StudentID: "u1", SessionID: "s1", Status: models.EnrollmentStatusIn}}

	assert.True(t, CanReadPremiumResource(book, "u1", enrollments))

	enrollments[0].Status = models.EnrollmentStatusPending
	assert.False(t, CanReadPremiumResource(book, "u1", enrollments))

	assert.True(t, CanReadPremiumResource(book, "owner", nil))
	assert.False(t, CanReadPremiumResource(book, "", nil))

	public := book
	public.Visibility = models.VisibilityPublic
	assert.False(t, CanReadPremiumResource(public, "owner", nil))
}

func TestCanReadPremiumResourceFailsClosed(t *testing.T) {
	book := models.Book{ID: "b1", Visibility: models.VisibilityPremium, CreatedBy: "owner"}
	enrollments := []models.Enrollment{
		{StudentID: "u1", SessionID: "s1", Status: models.EnrollmentStatusIn},
		{StudentID: "u1", SessionID: "s2", Status: models.EnrollmentStatusIn},
	}

	assert.False(t, CanReadPremiumResource(book, "u1", enrollments))
	assert.True(t, CanReadPremiumResource(book, "owner", nil))
}

func TestCanReadPremiumResourceIgnoresOtherStudents(t *testing.T) {
	book := models.Book{Visibility: models.VisibilityPremium, SessionIDs: []string{"s1"}}
	enrollments := []models.Enrollment{{StudentID: "u2", SessionID: "s1", Status: models.EnrollmentStatusIn}}
	assert.False(t, CanReadPremiumResource(book, "u1", enrollments))
}

func TestIsInstructorOfCourse(t *testing.T) {
	course := models.Course{InstructorIDs: []string{"i1", "i2"}}
	assert.True(t, IsInstructorOfCourse(course, "i2"))
	assert.False(t, IsInstructorOfCourse(course, "i3"))
	assert.False(t, IsInstructorOfCourse(course, ""))
	assert.False(t, IsInstructorOfCourse(models.Course{}, "i1"))
}

func TestIsEventVisibleToSession(t *testing.T) {
	viaCourse := models.Event{CourseID: strPtr("c1"), CourseSessionID: strPtr("s1")}
	assert.True(t, IsEventVisibleToSession(viaCourse, "s1"))
	assert.False(t, IsEventVisibleToSession(viaCourse, "s2"))

	both := viaCourse
	both.SessionID = strPtr("s2")
	assert.True(t, IsEventVisibleToSession(both, "s1"))
	assert.True(t, IsEventVisibleToSession(both, "s2"))
	assert.False(t, IsEventVisibleToSession(both, "s3"))

	direct := models.Event{SessionID: strPtr("s1")}
	assert.True(t, IsEventVisibleToSession(direct, "s1"))
	assert.False(t, IsEventVisibleToSession(direct, ""))
	assert.False(t, IsEventVisibleToSession(models.Event{}, "s1"))
}

func TestCanModifyOwnedResource(t *testing.T) {
	book := models.Book{CreatedBy: "u1"}

	assert.True(t, CanModifyOwnedResource(book, "u1", nil))
	assert.True(t, CanModifyOwnedResource(book, "u1", models.RoleSet{models.RoleStudent}))
	assert.True(t, CanModifyOwnedResource(book, "u9", models.RoleSet{models.RoleSecretary}))
	assert.False(t, CanModifyOwnedResource(book, "u9", models.RoleSet{models.RoleInstructor, models.RoleAdmin}))
	assert.False(t, CanModifyOwnedResource(models.Book{}, "", nil))
}
