package dto

import "time"

// AssignRoleRequest grants a role to a user.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor secretary admin expelled"`
}

// ToggleRoleRequest flips the active flag of an existing assignment.
type ToggleRoleRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UpdateEnrollmentStatusRequest moves an enrollment through the payment/admission flow.
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending notpaid refusedpayment in out"`
}

// UpdateCourseRequest edits a course. Nil fields are left untouched.
type UpdateCourseRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=4000"`
	InstructorIDs []string `json:"instructor_ids" validate:"omitempty,dive,required"`
}

// CreateEventRequest schedules an event for a session, a course, or both.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=4000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtefield=StartsAt"`
	SessionID   *string   `json:"session_id" validate:"required_without=CourseID"`
	CourseID    *string   `json:"course_id" validate:"required_without=SessionID"`
}

// BookRequest creates or replaces a book.
type BookRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Author     string   `json:"author" validate:"max=200"`
	Visibility string   `json:"visibility" validate:"required,oneof=public premium"`
	SessionIDs []string `json:"session_ids" validate:"omitempty,dive,required"`
	FilePath   string   `json:"file_path" validate:"required"`
}

// DownloadGrant is returned when a signed download link is resolved.
type DownloadGrant struct {
	BookID    string    `json:"book_id"`
	FilePath  string    `json:"file_path"`
	ExpiresAt time.Time `json:"expires_at"`
}
