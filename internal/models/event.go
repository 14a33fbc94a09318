package models

import "time"

// Event targets a session directly, a course, or both.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	SessionID   *string   `db:"session_id" json:"session_id,omitempty"`
	CourseID    *string   `db:"course_id" json:"course_id,omitempty"`
	// CourseSessionID is the session owning CourseID, resolved by join.
	CourseSessionID *string   `db:"course_session_id" json:"-"`
	CreatedBy       string    `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// OwnerID returns the creator of the event.
func (e Event) OwnerID() string { return e.CreatedBy }
