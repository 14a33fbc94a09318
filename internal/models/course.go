package models

import (
	"time"

	"github.com/lib/pq"
)

// Course belongs to a session and lists its instructors of record.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	SessionID     string         `db:"session_id" json:"session_id"`
	InstructorIDs pq.StringArray `db:"instructor_ids" json:"instructor_ids"`
	CreatedBy     string         `db:"created_by" json:"created_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// OwnerID returns the creator of the course.
func (c Course) OwnerID() string { return c.CreatedBy }
