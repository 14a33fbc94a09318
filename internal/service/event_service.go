package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/authz"
	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type eventRepository interface {
	ListForSession(ctx context.Context, sessionID string) ([]models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EventService manages events attached to sessions and courses.
type EventService struct {
	repo      eventRepository
	courses   courseFinder
	sessions  sessionFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, courses courseFinder, sessions sessionFinder, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, courses: courses, sessions: sessions, validator: validate, logger: logger}
}

// ListForSession returns the events visible to members of a session.
func (s *EventService) ListForSession(ctx context.Context, sessionID string) ([]models.Event, error) {
	candidates, err := s.repo.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list events")
	}
	events := make([]models.Event, 0, len(candidates))
	for _, event := range candidates {
		if authz.IsEventVisibleToSession(event, sessionID) {
			events = append(events, event)
		}
	}
	return events, nil
}

// Create schedules an event. Instructors may only attach events to courses they teach.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, claims *models.Claims) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		SessionID:   req.SessionID,
		CourseID:    req.CourseID,
		CreatedBy:   claims.SubjectID,
	}

	if req.SessionID != nil {
		if _, err := s.sessions.FindByID(ctx, *req.SessionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
			}
			return nil, appErrors.Internal(err, "failed to load session")
		}
	}
	if req.CourseID != nil {
		course, err := s.courses.FindByID(ctx, *req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Internal(err, "failed to load course")
		}
		if !claims.HasRole(models.RoleSecretary) && !authz.IsInstructorOfCourse(*course, claims.SubjectID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this course")
		}
		courseSession := course.SessionID
		event.CourseSessionID = &courseSession
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Internal(err, "failed to create event")
	}
	return event, nil
}

// Delete removes an event owned by the caller. Secretaries may remove any event.
func (s *EventService) Delete(ctx context.Context, id string, claims *models.Claims) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Internal(err, "failed to load event")
	}
	if !authz.CanModifyOwnedResource(event, claims.SubjectID, claims.Roles) {
		s.logger.Info("event delete denied", zap.String("event_id", id), zap.String("subject_id", claims.SubjectID))
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner may delete this event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Internal(err, "failed to delete event")
	}
	return nil
}
