package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRoleSetDropsUnknownAndDuplicates(t *testing.T) {
	set := NewRoleSet("student", "Student", "student", "wizard", "secretary")
	assert.Equal(t, RoleSet{RoleStudent, RoleSecretary}, set)
}

func TestRoleSetIntersects(t *testing.T) {
	set := RoleSet{RoleInstructor}
	assert.True(t, set.Intersects(RoleSet{RoleSecretary, RoleInstructor}))
	assert.False(t, set.Intersects(RoleSet{RoleSecretary}))
	assert.False(t, set.Intersects(nil))
}

func TestParseRoleIsCaseSensitive(t *testing.T) {
	_, ok := ParseRole("ADMIN")
	assert.False(t, ok)
	role, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
}

func TestGuestClaimsInfo(t *testing.T) {
	info := GuestClaims().Info()
	assert.True(t, info.Guest)
	assert.Empty(t, info.Roles)
	assert.False(t, GuestClaims().HasRole(RoleStudent))
}

func TestEnrollmentAdmitted(t *testing.T) {
	var missing *Enrollment
	assert.False(t, missing.Admitted())
	assert.False(t, (&Enrollment{Status: EnrollmentStatusPending}).Admitted())
	assert.True(t, (&Enrollment{Status: EnrollmentStatusIn}).Admitted())
	assert.False(t, EnrollmentStatus("IN").Valid())
}
