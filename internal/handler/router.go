package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-access-api/internal/authz"
	"github.com/noah-isme/lms-access-api/internal/middleware"
	"github.com/noah-isme/lms-access-api/internal/models"
	"github.com/noah-isme/lms-access-api/internal/service"
)

// Handlers groups every API handler mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Roles       *RoleHandler
	Sessions    *SessionHandler
	Enrollments *EnrollmentHandler
	Courses     *CourseHandler
	Events      *EventHandler
	Books       *BookHandler
	Metrics     *MetricsHandler
}

// Route binds an endpoint to the policy guarding it. Public routes have a nil Policy.
type Route struct {
	Method   string
	Path     string
	Policy   *authz.Policy
	Pre      []gin.HandlerFunc
	Handlers []gin.HandlerFunc
}

// RouteDeps carries the cross-cutting middleware used by the route table.
type RouteDeps struct {
	LoginLimit gin.HandlerFunc
	Audit      func(action, resource, resourceParam string) gin.HandlerFunc
}

func guard(p authz.Policy) *authz.Policy { return &p }

// Routes returns the API route table. Policies are fixed here and never change after registration.
func Routes(h Handlers, deps RouteDeps) []Route {
	audit := deps.Audit
	if audit == nil {
		audit = func(string, string, string) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }
	}
	var pre []gin.HandlerFunc
	if deps.LoginLimit != nil {
		pre = append(pre, deps.LoginLimit)
	}

	staff := authz.AnyOf(models.RoleInstructor, models.RoleSecretary)
	registrar := authz.AnyOf(models.RoleSecretary, models.RoleAdmin)

	return []Route{
		{Method: http.MethodPost, Path: "/auth/login", Pre: pre, Handlers: []gin.HandlerFunc{h.Auth.Login}},
		{Method: http.MethodPost, Path: "/auth/refresh", Handlers: []gin.HandlerFunc{h.Auth.Refresh}},
		{Method: http.MethodPost, Path: "/auth/logout", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Auth.Logout}},
		{Method: http.MethodGet, Path: "/auth/me", Policy: guard(authz.Optional()), Handlers: []gin.HandlerFunc{h.Auth.Me}},

		{Method: http.MethodGet, Path: "/users/:id/roles", Policy: guard(registrar), Handlers: []gin.HandlerFunc{h.Roles.List}},
		{Method: http.MethodPost, Path: "/users/:id/roles", Policy: guard(registrar),
			Handlers: []gin.HandlerFunc{audit(models.AuditActionRoleAssign, "user_role", "id"), h.Roles.Assign}},
		{Method: http.MethodPatch, Path: "/users/:id/roles/:role", Policy: guard(authz.SupervisorOnly()),
			Handlers: []gin.HandlerFunc{audit(models.AuditActionRoleToggle, "user_role", "id"), h.Roles.SetActive}},

		{Method: http.MethodGet, Path: "/sessions", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Sessions.List}},
		{Method: http.MethodGet, Path: "/sessions/active", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Sessions.Active}},
		{Method: http.MethodGet, Path: "/sessions/:sessionId", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Sessions.Get}},

		{Method: http.MethodPost, Path: "/sessions/:sessionId/enrollments", Policy: guard(authz.StudentOnly()), Handlers: []gin.HandlerFunc{h.Enrollments.Request}},
		{Method: http.MethodGet, Path: "/sessions/:sessionId/enrollments", Policy: guard(registrar), Handlers: []gin.HandlerFunc{h.Enrollments.List}},
		{Method: http.MethodPatch, Path: "/sessions/:sessionId/enrollments/:studentId", Policy: guard(authz.SecretaryOnly()),
			Handlers: []gin.HandlerFunc{audit(models.AuditActionEnrollmentStatus, "session_enrollment", "studentId"), h.Enrollments.UpdateStatus}},
		{Method: http.MethodDelete, Path: "/sessions/:sessionId/enrollments/:studentId", Policy: guard(authz.SecretaryOnly()),
			Handlers: []gin.HandlerFunc{audit(models.AuditActionEnrollmentRemove, "session_enrollment", "studentId"), h.Enrollments.Remove}},
		{Method: http.MethodGet, Path: "/sessions/:sessionId/roster.csv", Policy: guard(authz.SecretaryOnly()),
			Handlers: []gin.HandlerFunc{h.Enrollments.ExportRoster(service.ExportFormatCSV)}},
		{Method: http.MethodGet, Path: "/sessions/:sessionId/roster.pdf", Policy: guard(authz.SecretaryOnly()),
			Handlers: []gin.HandlerFunc{h.Enrollments.ExportRoster(service.ExportFormatPDF)}},
		{Method: http.MethodGet, Path: "/sessions/:sessionId/lobby", Policy: guard(authz.StudentInSession(authz.DefaultSessionParam)),
			Handlers: []gin.HandlerFunc{h.Enrollments.Lobby}},
		{Method: http.MethodGet, Path: "/sessions/:sessionId/events",
			Policy:   guard(authz.StudentInSession(authz.DefaultSessionParam).WithStaff(models.RoleInstructor, models.RoleSecretary)),
			Handlers: []gin.HandlerFunc{h.Events.ListForSession}},

		{Method: http.MethodGet, Path: "/courses/:id", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Courses.Get}},
		{Method: http.MethodPut, Path: "/courses/:id", Policy: guard(staff), Handlers: []gin.HandlerFunc{h.Courses.Update}},
		{Method: http.MethodGet, Path: "/instructor/courses", Policy: guard(authz.InstructorOnly()), Handlers: []gin.HandlerFunc{h.Courses.Mine}},

		{Method: http.MethodPost, Path: "/events", Policy: guard(staff), Handlers: []gin.HandlerFunc{h.Events.Create}},
		{Method: http.MethodDelete, Path: "/events/:id", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Events.Delete}},

		{Method: http.MethodGet, Path: "/books/current", Policy: guard(authz.Optional()), Handlers: []gin.HandlerFunc{h.Books.Current}},
		{Method: http.MethodGet, Path: "/books/:id", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Books.Get}},
		{Method: http.MethodPost, Path: "/books", Policy: guard(staff), Handlers: []gin.HandlerFunc{h.Books.Create}},
		{Method: http.MethodPut, Path: "/books/:id", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Books.Update}},
		{Method: http.MethodDelete, Path: "/books/:id", Policy: guard(authz.Authenticated()), Handlers: []gin.HandlerFunc{h.Books.Delete}},
		{Method: http.MethodGet, Path: "/downloads/:token", Handlers: []gin.HandlerFunc{h.Books.Download}},

		{Method: http.MethodGet, Path: "/admin/metrics/snapshot", Policy: guard(authz.SupervisorOnly()), Handlers: []gin.HandlerFunc{h.Metrics.Snapshot}},
		{Method: http.MethodPost, Path: "/admin/cache/flush", Policy: guard(authz.SupervisorOnly()), Handlers: []gin.HandlerFunc{h.Enrollments.FlushCache}},
	}
}

// RegisterRoutes mounts routes on group, placing each route's gate ahead of its handlers.
func RegisterRoutes(group gin.IRoutes, gates *middleware.Gates, routes []Route) {
	for _, rt := range routes {
		chain := make([]gin.HandlerFunc, 0, len(rt.Pre)+len(rt.Handlers)+1)
		chain = append(chain, rt.Pre...)
		if rt.Policy != nil {
			chain = append(chain, gates.Require(*rt.Policy))
		}
		chain = append(chain, rt.Handlers...)
		group.Handle(rt.Method, rt.Path, chain...)
	}
}
