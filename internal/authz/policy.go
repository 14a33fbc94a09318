// Package authz holds the route admission policies and the entitlement
// predicates evaluated by services after a route has admitted the caller.
package authz

import (
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

// Kind enumerates the gate variants.
type Kind int

const (
	KindAuthenticated Kind = iota
	KindSecretary
	KindInstructor
	KindStudent
	KindSupervisor
	KindAnyOf
	KindStudentInSession
	KindOptional
)

// DefaultSessionParam is the path parameter holding the session id.
const DefaultSessionParam = "sessionId"

var kindNames = map[Kind]string{
	KindAuthenticated:    "authenticated",
	KindSecretary:        "secretary",
	KindInstructor:       "instructor",
	KindStudent:          "student",
	KindSupervisor:       "supervisor",
	KindAnyOf:            "any_of",
	KindStudentInSession: "student_in_session",
	KindOptional:         "optional",
}

// Policy is an immutable admission rule bound to a route at registration time.
type Policy struct {
	kind         Kind
	roles        models.RoleSet
	staff        models.RoleSet
	sessionParam string
}

// Authenticated admits any verified caller, with or without roles.
func Authenticated() Policy { return Policy{kind: KindAuthenticated} }

// SecretaryOnly admits callers holding the secretary role.
func SecretaryOnly() Policy { return Policy{kind: KindSecretary} }

// InstructorOnly admits callers holding the instructor role.
func InstructorOnly() Policy { return Policy{kind: KindInstructor} }

// StudentOnly admits callers holding the student role.
func StudentOnly() Policy { return Policy{kind: KindStudent} }

// SupervisorOnly admits callers holding the admin role.
func SupervisorOnly() Policy { return Policy{kind: KindSupervisor} }

// AnyOf admits callers holding at least one of roles.
func AnyOf(roles ...models.Role) Policy {
	return Policy{kind: KindAnyOf, roles: copyRoles(roles)}
}

// StudentInSession admits students whose enrollment in the session named by
// the param path parameter has status "in".
func StudentInSession(param string) Policy {
	if param == "" {
		param = DefaultSessionParam
	}
	return Policy{kind: KindStudentInSession, sessionParam: param}
}

// Optional admits anonymous callers as guests; a presented credential must still verify.
func Optional() Policy { return Policy{kind: KindOptional} }

// WithStaff returns a copy of p that also admits holders of roles without an
// enrollment check. Only meaningful for StudentInSession.
func (p Policy) WithStaff(roles ...models.Role) Policy {
	p.staff = copyRoles(roles)
	return p
}

// Kind returns the policy variant.
func (p Policy) Kind() Kind { return p.kind }

// Name is a stable label for logs and metrics.
func (p Policy) Name() string { return kindNames[p.kind] }

// SessionParam returns the path parameter carrying the session id.
func (p Policy) SessionParam() string { return p.sessionParam }

// AllowsAnonymous reports whether a request without credential may pass.
func (p Policy) AllowsAnonymous() bool { return p.kind == KindOptional }

// Roles returns a copy of the roles accepted by an AnyOf policy.
func (p Policy) Roles() models.RoleSet { return copyRoles(p.roles) }

// NeedsEnrollment reports whether Evaluate needs the caller's enrollment record.
func (p Policy) NeedsEnrollment(claims *models.Claims) bool {
	if p.kind != KindStudentInSession || !authenticated(claims) {
		return false
	}
	return claims.HasRole(models.RoleStudent) && !claims.Roles.Intersects(p.staff)
}

// Evaluate decides whether claims satisfy p. enrollment is the caller's
// record for the session in path and is only consulted for StudentInSession;
// nil means no record exists.
func Evaluate(claims *models.Claims, p Policy, enrollment *models.Enrollment) error {
	if p.kind == KindOptional {
		return nil
	}
	if !authenticated(claims) {
		return appErrors.ErrMissingCredential
	}

	switch p.kind {
	case KindAuthenticated:
		return nil
	case KindSecretary:
		return requireRole(claims, models.RoleSecretary)
	case KindInstructor:
		return requireRole(claims, models.RoleInstructor)
	case KindStudent:
		return requireRole(claims, models.RoleStudent)
	case KindSupervisor:
		return requireRole(claims, models.RoleAdmin)
	case KindAnyOf:
		if claims.Roles.Intersects(p.roles) {
			return nil
		}
		return appErrors.ErrInsufficientRole
	case KindStudentInSession:
		if claims.Roles.Intersects(p.staff) {
			return nil
		}
		if err := requireRole(claims, models.RoleStudent); err != nil {
			return err
		}
		if enrollment == nil || enrollment.StudentID != claims.SubjectID || !enrollment.Admitted() {
			return appErrors.ErrSessionAdmissionPending
		}
		return nil
	}
	return appErrors.ErrInsufficientRole
}

// Admit is Evaluate reduced to a boolean.
func Admit(claims *models.Claims, p Policy, enrollment *models.Enrollment) bool {
	return Evaluate(claims, p, enrollment) == nil
}

func requireRole(claims *models.Claims, role models.Role) error {
	if claims.HasRole(role) {
		return nil
	}
	return appErrors.ErrInsufficientRole
}

func authenticated(claims *models.Claims) bool {
	return claims != nil && !claims.Guest && claims.SubjectID != ""
}

func copyRoles(roles []models.Role) models.RoleSet {
	if len(roles) == 0 {
		return nil
	}
	out := make(models.RoleSet, len(roles))
	copy(out, roles)
	return out
}
