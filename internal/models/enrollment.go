package models

import "time"

// EnrollmentStatus represents the payment/admission state of a session enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Only EnrollmentStatusIn grants session access.
const (
	EnrollmentStatusPending        EnrollmentStatus = "pending"
	EnrollmentStatusNotPaid        EnrollmentStatus = "notpaid"
	EnrollmentStatusRefusedPayment EnrollmentStatus = "refusedpayment"
	EnrollmentStatusIn             EnrollmentStatus = "in"
	EnrollmentStatusOut            EnrollmentStatus = "out"
)

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusNotPaid, EnrollmentStatusRefusedPayment, EnrollmentStatusIn, EnrollmentStatusOut:
		return true
	}
	return false
}

// Enrollment links a student to a session. There is at most one per (student, session).
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	SessionID string           `db:"session_id" json:"session_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Admitted reports whether the enrollment grants access to session content.
func (e *Enrollment) Admitted() bool {
	return e != nil && e.Status == EnrollmentStatusIn
}

// EnrollmentDetail enriches Enrollment with student and session info.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
	SessionTitle string `db:"session_title" json:"session_title"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	SessionID string
	StudentID string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
