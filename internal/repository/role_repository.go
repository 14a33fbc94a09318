package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-access-api/internal/models"
)

// RoleRepository persists user role assignments. (user_id, role) is unique.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs the repository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListByUser returns every assignment for a user, active or not.
func (r *RoleRepository) ListByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error) {
	const query = `SELECT id, user_id, role, active, created_at, updated_at FROM user_roles WHERE user_id = $1 ORDER BY created_at ASC`
	var assignments []models.RoleAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, userID); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return assignments, nil
}

// ActiveRoles returns the active role tags of a user.
func (r *RoleRepository) ActiveRoles(ctx context.Context, userID string) (models.RoleSet, error) {
	const query = `SELECT role FROM user_roles WHERE user_id = $1 AND active = TRUE ORDER BY created_at ASC`
	var raw []string
	if err := r.db.SelectContext(ctx, &raw, query, userID); err != nil {
		return nil, fmt.Errorf("list active roles: %w", err)
	}
	return models.NewRoleSet(raw...), nil
}

// Find returns the assignment for (userID, role).
func (r *RoleRepository) Find(ctx context.Context, userID string, role models.Role) (*models.RoleAssignment, error) {
	const query = `SELECT id, user_id, role, active, created_at, updated_at FROM user_roles WHERE user_id = $1 AND role = $2`
	var assignment models.RoleAssignment
	if err := r.db.GetContext(ctx, &assignment, query, userID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user role: %w", err)
	}
	return &assignment, nil
}

// Create inserts a new assignment.
func (r *RoleRepository) Create(ctx context.Context, assignment *models.RoleAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO user_roles (id, user_id, role, active, created_at, updated_at) VALUES (:id, :user_id, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create user role: %w", err)
	}
	return nil
}

// SetActive flips the active flag. The row is never deleted.
func (r *RoleRepository) SetActive(ctx context.Context, userID string, role models.Role, active bool) error {
	const query = `UPDATE user_roles SET active = $3, updated_at = $4 WHERE user_id = $1 AND role = $2`
	res, err := r.db.ExecContext(ctx, query, userID, role, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
