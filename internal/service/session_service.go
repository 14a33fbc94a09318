package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/authz"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Session, error)
}

// SessionService exposes sessions and their activity windows.
type SessionService struct {
	repo   sessionRepository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionService constructs SessionService. Windows are evaluated in loc.
func NewSessionService(repo sessionRepository, loc *time.Location, logger *zap.Logger) *SessionService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// List returns all sessions.
func (s *SessionService) List(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list sessions")
	}
	return sessions, nil
}

// Active returns sessions whose window contains the current instant.
func (s *SessionService) Active(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if authz.SessionActive(session, now, s.loc) {
			active = append(active, session)
		}
	}
	return active, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	return session, nil
}

// FindByIDs returns the sessions with the given ids, skipping unknown ones.
func (s *SessionService) FindByIDs(ctx context.Context, ids []string) ([]models.Session, error) {
	sessions, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load sessions")
	}
	return sessions, nil
}

// FindByID satisfies repository-shaped consumers, passing sql.ErrNoRows through.
func (s *SessionService) FindByID(ctx context.Context, id string) (*models.Session, error) {
	return s.repo.FindByID(ctx, id)
}
