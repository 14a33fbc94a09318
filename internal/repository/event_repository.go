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

const eventSelect = `SELECT e.id, e.title, e.description, e.starts_at, e.ends_at, e.session_id, e.course_id,
        c.session_id AS course_session_id, e.created_by, e.created_at
        FROM events e
        LEFT JOIN courses c ON c.id = e.course_id`

// EventRepository stores calendar events attached to sessions or courses.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListForSession returns events attached to the session directly or through one of its courses.
func (r *EventRepository) ListForSession(ctx context.Context, sessionID string) ([]models.Event, error) {
	query := eventSelect + ` WHERE e.session_id = $1 OR c.session_id = $1 ORDER BY e.starts_at`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	return events, nil
}

// FindByID returns an event by id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := eventSelect + ` WHERE e.id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO events (id, title, description, starts_at, ends_at, session_id, course_id, created_by, created_at)
        VALUES (:id, :title, :description, :starts_at, :ends_at, :session_id, :course_id, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
