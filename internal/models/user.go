package models

import "time"

// Role is a closed set of role tags carried in access tokens.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleSecretary  Role = "secretary"
	RoleAdmin      Role = "admin"
	RoleExpelled   Role = "expelled"
)

// KnownRoles lists every recognised role tag.
var KnownRoles = []Role{RoleStudent, RoleInstructor, RoleSecretary, RoleAdmin, RoleExpelled}

// ParseRole matches raw against the known tags. Matching is case-sensitive.
func ParseRole(raw string) (Role, bool) {
	for _, r := range KnownRoles {
		if string(r) == raw {
			return r, true
		}
	}
	return "", false
}

// RoleSet is an ordered, duplicate-free list of roles.
type RoleSet []Role

// NewRoleSet drops unknown tags and duplicates, keeping first-seen order.
func NewRoleSet(raw ...string) RoleSet {
	set := make(RoleSet, 0, len(raw))
	for _, tag := range raw {
		role, ok := ParseRole(tag)
		if !ok || set.Has(role) {
			continue
		}
		set = append(set, role)
	}
	return set
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects reports whether s and other share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	for _, r := range other {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the raw tags.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// RoleAssignment maps a user to a role. Deactivation flips Active and keeps the row.
type RoleAssignment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      Role      `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
