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

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
}

// CourseService manages courses and instructor-of-record checks.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

// ListForInstructor returns the courses the caller teaches.
func (s *CourseService) ListForInstructor(ctx context.Context, claims *models.Claims) ([]models.Course, error) {
	courses, err := s.repo.ListByInstructor(ctx, claims.SubjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, nil
}

// Update edits a course. Instructors must be of record; secretaries may edit any course.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest, claims *models.Claims) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claims.HasRole(models.RoleSecretary) && !authz.IsInstructorOfCourse(*course, claims.SubjectID) {
		s.logger.Info("course update denied", zap.String("course_id", id), zap.String("subject_id", claims.SubjectID))
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this course")
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.InstructorIDs != nil {
		if !claims.HasRole(models.RoleSecretary) {
			return nil, appErrors.Clone(appErrors.ErrInsufficientRole, "only secretaries may change instructors")
		}
		course.InstructorIDs = req.InstructorIDs
	}
	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to update course")
	}
	return course, nil
}
