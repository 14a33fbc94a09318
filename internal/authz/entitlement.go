package authz

import (
	"time"

	"github.com/noah-isme/lms-access-api/internal/models"
)

// Owned is implemented by resources that record their creator.
type Owned interface {
	OwnerID() string
}

// StartOfDay returns midnight of t's calendar date as seen in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar date in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SessionActive reports beginDate <= now <= endOfDay(endDate).
func SessionActive(s models.Session, now time.Time, loc *time.Location) bool {
	if s.BeginDate.IsZero() || s.EndDate.IsZero() {
		return false
	}
	return !now.Before(s.BeginDate) && !now.After(EndOfDay(s.EndDate, loc))
}

// IsResourceCurrentlyActive reports whether any of the resource's sessions is active at now.
func IsResourceCurrentlyActive(sessions []models.Session, now time.Time, loc *time.Location) bool {
	for _, s := range sessions {
		if SessionActive(s, now, loc) {
			return true
		}
	}
	return false
}

// CanReadPremiumResource reports whether callerID may read a premium book.
// Public books return false: the predicate only grants premium access.
// A premium book with no sessions is readable by its owner only.
func CanReadPremiumResource(book models.Book, callerID string, enrollments []models.Enrollment) bool {
	if book.Visibility != models.VisibilityPremium || callerID == "" {
		return false
	}
	if book.CreatedBy == callerID {
		return true
	}
	for _, e := range enrollments {
		if e.StudentID != callerID || e.Status != models.EnrollmentStatusIn {
			continue
		}
		for _, sessionID := range book.SessionIDs {
			if sessionID == e.SessionID {
				return true
			}
		}
	}
	return false
}

// IsInstructorOfCourse tests membership in the course's instructor list.
func IsInstructorOfCourse(course models.Course, userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range course.InstructorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsEventVisibleToSession is true when the event targets sessionID directly
// or through a course belonging to sessionID.
func IsEventVisibleToSession(event models.Event, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	direct := event.SessionID != nil && *event.SessionID == sessionID
	viaCourse := event.CourseID != nil && event.CourseSessionID != nil && *event.CourseSessionID == sessionID
	return direct || viaCourse
}

// CanModifyOwnedResource allows the creator, and any secretary.
func CanModifyOwnedResource(resource Owned, callerID string, callerRoles models.RoleSet) bool {
	if callerRoles.Has(models.RoleSecretary) {
		return true
	}
	return callerID != "" && resource != nil && resource.OwnerID() == callerID
}
