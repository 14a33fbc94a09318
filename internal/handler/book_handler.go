package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
	"github.com/noah-isme/lms-access-api/pkg/response"
)

type bookService interface {
	View(ctx context.Context, id string, claims *models.Claims) (*models.BookView, error)
	Current(ctx context.Context, claims *models.Claims) ([]models.BookView, error)
	Create(ctx context.Context, req dto.BookRequest, claims *models.Claims) (*models.Book, error)
	Update(ctx context.Context, id string, req dto.BookRequest, claims *models.Claims) (*models.Book, error)
	Delete(ctx context.Context, id string, claims *models.Claims) error
	OpenDownload(token string) (*os.File, dto.DownloadGrant, error)
}

// BookHandler exposes the book library and signed downloads.
type BookHandler struct {
	service bookService
}

// NewBookHandler constructs a BookHandler.
func NewBookHandler(svc bookService) *BookHandler {
	return &BookHandler{service: svc}
}

// Current godoc
// @Summary Books of active sessions
// @Description Premium entries are locked unless the caller is entitled to them
// @Tags Books
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /books/current [get]
func (h *BookHandler) Current(c *gin.Context) {
	items, err := h.service.Current(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get book
// @Description Returns the book with a signed download token
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	view, err := h.service.View(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Create book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BookRequest true "Book"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.BookRequest
	if !bindJSON(c, &req, "invalid book payload") {
		return
	}
	book, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// Update godoc
// @Summary Update book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Param payload body dto.BookRequest true "Book"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.BookRequest
	if !bindJSON(c, &req, "invalid book payload") {
		return
	}
	book, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// Delete godoc
// @Summary Delete book
// @Tags Books
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Download book file
// @Tags Books
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /downloads/{token} [get]
func (h *BookHandler) Download(c *gin.Context) {
	file, grant, err := h.service.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read file"))
		return
	}
	response.Stream(c, filepath.Base(grant.FilePath), "application/octet-stream", info.Size(), file)
}
