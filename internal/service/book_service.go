package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/authz"
	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
	"github.com/noah-isme/lms-access-api/pkg/storage"
)

type bookRepository interface {
	List(ctx context.Context) ([]models.Book, error)
	FindByID(ctx context.Context, id string) (*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
}

type sessionBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Session, error)
}

type admittedEnrollmentReader interface {
	Admitted(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type bookFileStore interface {
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type downloadSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (storage.Grant, error)
}

// BookService serves library books and enforces premium entitlements.
type BookService struct {
	repo        bookRepository
	sessions    sessionBatchReader
	enrollments admittedEnrollmentReader
	files       bookFileStore
	signer      downloadSigner
	loc         *time.Location
	now         func() time.Time
	validator   *validator.Validate
	logger      *zap.Logger
}

// BookServiceDeps groups BookService collaborators.
type BookServiceDeps struct {
	Repo        bookRepository
	Sessions    sessionBatchReader
	Enrollments admittedEnrollmentReader
	Files       bookFileStore
	Signer      downloadSigner
	Location    *time.Location
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewBookService constructs BookService.
func NewBookService(deps BookServiceDeps) *BookService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &BookService{
		repo:        deps.Repo,
		sessions:    deps.Sessions,
		enrollments: deps.Enrollments,
		files:       deps.Files,
		signer:      deps.Signer,
		loc:         deps.Location,
		now:         time.Now,
		validator:   deps.Validator,
		logger:      deps.Logger,
	}
}

// View returns a book with a download link. Premium books require entitlement.
func (s *BookService) View(ctx context.Context, id string, claims *models.Claims) (*models.BookView, error) {
	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	readable, err := s.canRead(ctx, *book, claims, nil)
	if err != nil {
		return nil, err
	}
	if !readable {
		s.logger.Info("premium book denied", zap.String("book_id", id), zap.String("subject_id", claims.SubjectID))
		return nil, appErrors.Clone(appErrors.ErrNotYetEntitled, "premium book requires admission to one of its sessions")
	}
	return s.withDownload(*book)
}

// Current lists books attached to at least one active session. Premium entries
// the caller cannot read are returned locked, without a download link.
func (s *BookService) Current(ctx context.Context, claims *models.Claims) ([]models.BookView, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list books")
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, book := range books {
		for _, id := range book.SessionIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sessions, err := s.sessions.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load sessions")
	}
	byID := make(map[string]models.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}

	var admitted []models.Enrollment
	loaded := false
	now := s.now()
	views := make([]models.BookView, 0, len(books))
	for _, book := range books {
		attached := make([]models.Session, 0, len(book.SessionIDs))
		for _, id := range book.SessionIDs {
			if session, ok := byID[id]; ok {
				attached = append(attached, session)
			}
		}
		if !authz.IsResourceCurrentlyActive(attached, now, s.loc) {
			continue
		}

		if book.Visibility == models.VisibilityPremium && !loaded {
			admitted, err = s.admittedFor(ctx, claims)
			if err != nil {
				return nil, err
			}
			loaded = true
		}
		readable, err := s.canRead(ctx, book, claims, admitted)
		if err != nil {
			return nil, err
		}
		if !readable {
			views = append(views, models.BookView{Book: book, Locked: true})
			continue
		}
		view, err := s.withDownload(book)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Create stores a new book owned by the caller.
func (s *BookService) Create(ctx context.Context, req dto.BookRequest, claims *models.Claims) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book := &models.Book{
		Title:      req.Title,
		Author:     req.Author,
		Visibility: models.Visibility(req.Visibility),
		SessionIDs: req.SessionIDs,
		FilePath:   req.FilePath,
		CreatedBy:  claims.SubjectID,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, appErrors.Internal(err, "failed to create book")
	}
	return book, nil
}

// Update replaces a book's attributes. Only the owner or a secretary may update.
func (s *BookService) Update(ctx context.Context, id string, req dto.BookRequest, claims *models.Claims) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyOwnedResource(book, claims.SubjectID, claims.Roles) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner may modify this book")
	}
	book.Title = req.Title
	book.Author = req.Author
	book.Visibility = models.Visibility(req.Visibility)
	book.SessionIDs = req.SessionIDs
	book.FilePath = req.FilePath
	if err := s.repo.Update(ctx, book); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return nil, appErrors.Internal(err, "failed to update book")
	}
	return book, nil
}

// Delete removes a book and its stored file.
func (s *BookService) Delete(ctx context.Context, id string, claims *models.Claims) error {
	book, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanModifyOwnedResource(book, claims.SubjectID, claims.Roles) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner may delete this book")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return appErrors.Internal(err, "failed to delete book")
	}
	if err := s.files.Delete(book.FilePath); err != nil {
		s.logger.Warn("book file cleanup failed", zap.String("book_id", id), zap.Error(err))
	}
	return nil
}

// OpenDownload resolves a signed download token to an open file.
func (s *BookService) OpenDownload(token string) (*os.File, dto.DownloadGrant, error) {
	grant, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, dto.DownloadGrant{}, appErrors.Clone(appErrors.ErrExpiredCredential, "download link expired")
		}
		return nil, dto.DownloadGrant{}, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.files.Open(grant.Path)
	if err != nil {
		return nil, dto.DownloadGrant{}, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	return file, dto.DownloadGrant{BookID: grant.ResourceID, FilePath: grant.Path, ExpiresAt: grant.ExpiresAt}, nil
}

func (s *BookService) load(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return nil, appErrors.Internal(err, "failed to load book")
	}
	return book, nil
}

// canRead loads the caller's admitted enrollments when admitted is nil.
func (s *BookService) canRead(ctx context.Context, book models.Book, claims *models.Claims, admitted []models.Enrollment) (bool, error) {
	if book.Visibility != models.VisibilityPremium {
		return true, nil
	}
	if claims == nil || claims.Guest || claims.SubjectID == "" {
		return false, nil
	}
	if admitted == nil {
		var err error
		if admitted, err = s.admittedFor(ctx, claims); err != nil {
			return false, err
		}
	}
	return authz.CanReadPremiumResource(book, claims.SubjectID, admitted), nil
}

func (s *BookService) admittedFor(ctx context.Context, claims *models.Claims) ([]models.Enrollment, error) {
	if claims == nil || claims.Guest || !claims.HasRole(models.RoleStudent) {
		return []models.Enrollment{}, nil
	}
	admitted, err := s.enrollments.Admitted(ctx, claims.SubjectID)
	if err != nil {
		return nil, err
	}
	if admitted == nil {
		admitted = []models.Enrollment{}
	}
	return admitted, nil
}

func (s *BookService) withDownload(book models.Book) (*models.BookView, error) {
	view := &models.BookView{Book: book}
	if book.FilePath == "" {
		return view, nil
	}
	token, expiresAt, err := s.signer.Generate(book.ID, book.FilePath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	view.DownloadToken = token
	view.DownloadExpiresAt = &expiresAt
	return view, nil
}
