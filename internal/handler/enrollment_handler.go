package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	"github.com/noah-isme/lms-access-api/internal/service"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
	"github.com/noah-isme/lms-access-api/pkg/response"
)

type enrollmentService interface {
	Lookup(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error)
	Request(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, sessionID, studentID string, req dto.UpdateEnrollmentStatusRequest) (*models.Enrollment, error)
	Remove(ctx context.Context, sessionID, studentID string) error
	FlushCache(ctx context.Context) error
}

type rosterExporter interface {
	RenderRoster(ctx context.Context, sessionID string, format service.ExportFormat) (*service.RosterExport, error)
}

// EnrollmentHandler exposes session enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	sessions    sessionService
	exports     rosterExporter
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService, sessions sessionService, exports rosterExporter) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, sessions: sessions, exports: exports}
}

// Request godoc
// @Summary Request enrollment
// @Description Creates a pending enrollment of the caller in the session
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/enrollments [post]
func (h *EnrollmentHandler) Request(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	enrollment, err := h.enrollments.Request(c.Request.Context(), claims.SubjectID, c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// List godoc
// @Summary List session enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort query string false "created_at, student_name or status"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		SessionID: c.Param("sessionId"),
		Status:    models.EnrollmentStatus(strings.ToLower(c.Query("status"))),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status"))
		return
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	items, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Update enrollment status
// @Description Moves an enrollment through the payment and admission flow
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.UpdateEnrollmentStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/enrollments/{studentId} [patch]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateEnrollmentStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	enrollment, err := h.enrollments.UpdateStatus(c.Request.Context(), c.Param("sessionId"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Remove godoc
// @Summary Remove enrollment
// @Tags Enrollments
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/enrollments/{studentId} [delete]
func (h *EnrollmentHandler) Remove(c *gin.Context) {
	if err := h.enrollments.Remove(c.Request.Context(), c.Param("sessionId"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportRoster godoc
// @Summary Export session roster
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {file} binary
// @Router /sessions/{sessionId}/roster.csv [get]
// @Router /sessions/{sessionId}/roster.pdf [get]
func (h *EnrollmentHandler) ExportRoster(format service.ExportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := h.exports.RenderRoster(c.Request.Context(), c.Param("sessionId"), format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, out.Filename, out.ContentType, out.Payload)
	}
}

type lobbyView struct {
	Session    *models.Session    `json:"session"`
	Enrollment *models.Enrollment `json:"enrollment"`
}

// Lobby godoc
// @Summary Session lobby
// @Description Landing payload for a student admitted to the session
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions/{sessionId}/lobby [get]
func (h *EnrollmentHandler) Lobby(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	sessionID := c.Param("sessionId")
	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Lookup(c.Request.Context(), claims.SubjectID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lobbyView{Session: session, Enrollment: enrollment}, nil)
}

// FlushCache godoc
// @Summary Flush entitlement cache
// @Description Drops cached enrollment lookups so the next gate check reads the database
// @Tags Supervisor
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /admin/cache/flush [post]
func (h *EnrollmentHandler) FlushCache(c *gin.Context) {
	if err := h.enrollments.FlushCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
