package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	Find(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, studentID, sessionID string, status models.EnrollmentStatus) error
	Delete(ctx context.Context, studentID, sessionID string) error
}

type sessionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

// cachedEnrollment lets the cache remember that no record exists.
type cachedEnrollment struct {
	Found      bool               `json:"found"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
}

const rosterPageSize = 100

// EnrollmentService orchestrates session enrollment workflows and admission lookups.
type EnrollmentService struct {
	repo      enrollmentRepository
	sessions  sessionFinder
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	lookups   singleflight.Group

	// generations are bumped on every invalidation so a read that started
	// before a change never leaves its snapshot in the cache.
	generations [lookupStripes]atomic.Uint64
}

const (
	lookupStripes   = 256
	uniqueViolation = "23505"
)

// NewEnrollmentService constructs EnrollmentService. cache may be nil.
func NewEnrollmentService(repo enrollmentRepository, sessions sessionFinder, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, sessions: sessions, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func enrollmentCacheKey(studentID, sessionID string) string {
	return fmt.Sprintf("enrollment:%s:%s", studentID, sessionID)
}

// Lookup returns the caller's enrollment for a session, or nil when none exists.
// Concurrent misses for the same pair share one database read.
func (s *EnrollmentService) Lookup(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error) {
	key := enrollmentCacheKey(studentID, sessionID)
	var cached cachedEnrollment
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Enrollment, nil
	}

	resultChan := s.lookups.DoChan(key, func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), key, studentID, sessionID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		enrollment, _ := res.Val.(*models.Enrollment)
		if enrollment == nil {
			return nil, nil
		}
		copied := *enrollment
		return &copied, nil
	}
}

func (s *EnrollmentService) load(ctx context.Context, key, studentID, sessionID string) (*models.Enrollment, error) {
	gen := s.generation(key)
	before := gen.Load()

	enrollment, err := s.repo.Find(ctx, studentID, sessionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	if errors.Is(err, sql.ErrNoRows) {
		enrollment = nil
	}
	if gen.Load() != before {
		return enrollment, nil
	}
	_ = s.cache.Set(ctx, key, cachedEnrollment{Found: enrollment != nil, Enrollment: enrollment}, s.cacheTTL)
	if gen.Load() != before {
		_ = s.cache.Delete(ctx, key)
	}
	return enrollment, nil
}

func (s *EnrollmentService) generation(key string) *atomic.Uint64 {
	return &s.generations[xxhash.Sum64String(key)%lookupStripes]
}

// Admitted returns the student's enrollments with status in.
func (s *EnrollmentService) Admitted(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID, models.EnrollmentStatusIn)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	return enrollments, nil
}

// List returns a session roster with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status")
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > rosterPageSize {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Roster returns the session and every enrollment in it, for exports.
func (s *EnrollmentService) Roster(ctx context.Context, sessionID string) (*models.Session, []models.EnrollmentDetail, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	var all []models.EnrollmentDetail
	for page := 1; ; page++ {
		items, total, err := s.repo.List(ctx, models.EnrollmentFilter{
			SessionID: sessionID,
			Page:      page,
			PageSize:  rosterPageSize,
			SortBy:    "student_name",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, nil, appErrors.Internal(err, "failed to load roster")
		}
		all = append(all, items...)
		if len(items) == 0 || len(all) >= total {
			break
		}
	}
	return session, all, nil
}

// Request records a pending enrollment of the student in a session.
func (s *EnrollmentService) Request(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error) {
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Find(ctx, studentID, sessionID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in session")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}

	enrollment := &models.Enrollment{StudentID: studentID, SessionID: sessionID, Status: models.EnrollmentStatusPending}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in session")
		}
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}
	s.invalidate(ctx, studentID, sessionID)
	s.logger.Info("enrollment requested", zap.String("student_id", studentID), zap.String("session_id", sessionID))
	return enrollment, nil
}

// UpdateStatus moves an enrollment to a new status.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, sessionID, studentID string, req dto.UpdateEnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment status payload")
	}
	status := models.EnrollmentStatus(req.Status)
	if err := s.repo.UpdateStatus(ctx, studentID, sessionID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to update enrollment")
	}
	s.invalidate(ctx, studentID, sessionID)

	enrollment, err := s.repo.Find(ctx, studentID, sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	s.logger.Info("enrollment status changed",
		zap.String("student_id", studentID),
		zap.String("session_id", sessionID),
		zap.String("status", string(status)),
	)
	return enrollment, nil
}

// Remove deletes an enrollment record.
func (s *EnrollmentService) Remove(ctx context.Context, sessionID, studentID string) error {
	if err := s.repo.Delete(ctx, studentID, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Internal(err, "failed to remove enrollment")
	}
	s.invalidate(ctx, studentID, sessionID)
	return nil
}

func (s *EnrollmentService) loadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	return session, nil
}

func (s *EnrollmentService) invalidate(ctx context.Context, studentID, sessionID string) {
	key := enrollmentCacheKey(studentID, sessionID)
	s.generation(key).Add(1)
	s.lookups.Forget(key)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("enrollment cache invalidation failed", zap.String("student_id", studentID), zap.String("session_id", sessionID), zap.Error(err))
	}
}

// FlushCache drops every cached enrollment lookup.
func (s *EnrollmentService) FlushCache(ctx context.Context) error {
	for i := range s.generations {
		s.generations[i].Add(1)
	}
	if err := s.cache.Invalidate(ctx, enrollmentCacheKey("*", "*")); err != nil {
		return appErrors.Internal(err, "failed to flush entitlement cache")
	}
	return nil
}
