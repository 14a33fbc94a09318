package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type roleRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error)
	Find(ctx context.Context, userID string, role models.Role) (*models.RoleAssignment, error)
	Create(ctx context.Context, assignment *models.RoleAssignment) error
	SetActive(ctx context.Context, userID string, role models.Role, active bool) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RoleService manages role assignments. Assignments are never deleted, only deactivated.
type RoleService struct {
	repo      roleRepository
	users     userReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs RoleService.
func NewRoleService(repo roleRepository, users userReader, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns every assignment of a user, active or not.
func (s *RoleService) List(ctx context.Context, userID string) ([]models.RoleAssignment, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list role assignments")
	}
	return assignments, nil
}

// Assign grants role to a user. An inactive assignment for the same pair is reactivated.
func (s *RoleService) Assign(ctx context.Context, userID string, req dto.AssignRoleRequest) (*models.RoleAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Find(ctx, userID, role)
	switch {
	case err == nil:
		if existing.Active {
			return nil, appErrors.Clone(appErrors.ErrConflict, "role already assigned")
		}
		if err := s.repo.SetActive(ctx, userID, role, true); err != nil {
			return nil, appErrors.Internal(err, "failed to reactivate role")
		}
		existing.Active = true
		s.logger.Info("role reactivated", zap.String("user_id", userID), zap.String("role", string(role)))
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load role assignment")
	}

	assignment := &models.RoleAssignment{UserID: userID, Role: role, Active: true}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Internal(err, "failed to assign role")
	}
	s.logger.Info("role assigned", zap.String("user_id", userID), zap.String("role", string(role)))
	return assignment, nil
}

// SetActive flips the active flag of an existing assignment.
func (s *RoleService) SetActive(ctx context.Context, userID, roleTag string, req dto.ToggleRoleRequest) (*models.RoleAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle payload")
	}
	role, ok := models.ParseRole(roleTag)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if err := s.repo.SetActive(ctx, userID, role, *req.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role assignment not found")
		}
		return nil, appErrors.Internal(err, "failed to update role assignment")
	}
	assignment, err := s.repo.Find(ctx, userID, role)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load role assignment")
	}
	return assignment, nil
}

func (s *RoleService) ensureUser(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to load user")
	}
	return nil
}
