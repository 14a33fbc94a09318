package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	"github.com/noah-isme/lms-access-api/pkg/response"
)

type roleService interface {
	List(ctx context.Context, userID string) ([]models.RoleAssignment, error)
	Assign(ctx context.Context, userID string, req dto.AssignRoleRequest) (*models.RoleAssignment, error)
	SetActive(ctx context.Context, userID, roleTag string, req dto.ToggleRoleRequest) (*models.RoleAssignment, error)
}

// RoleHandler manages role assignments of a user.
type RoleHandler struct {
	service roleService
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(svc roleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// List godoc
// @Summary List role assignments
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Assign godoc
// @Summary Assign role
// @Description Grants a role to a user. An inactive assignment of the same role is reactivated.
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body dto.AssignRoleRequest true "Role"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id}/roles [post]
func (h *RoleHandler) Assign(c *gin.Context) {
	var req dto.AssignRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// SetActive godoc
// @Summary Toggle role assignment
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param role path string true "Role tag"
// @Param payload body dto.ToggleRoleRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/roles/{role} [patch]
func (h *RoleHandler) SetActive(c *gin.Context) {
	var req dto.ToggleRoleRequest
	if !bindJSON(c, &req, "invalid toggle payload") {
		return
	}
	assignment, err := h.service.SetActive(c.Request.Context(), c.Param("id"), c.Param("role"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}
