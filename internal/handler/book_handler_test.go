package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-access-api/internal/dto"
	"github.com/noah-isme/lms-access-api/internal/middleware"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type bookServiceMock struct {
	viewErr     error
	file        string
	downloadErr error
	claims      *models.Claims
	created     dto.BookRequest
}

func (m *bookServiceMock) View(ctx context.Context, id string, claims *models.Claims) (*models.BookView, error) {
	m.claims = claims
	if m.viewErr != nil {
		return nil, m.viewErr
	}
	return &models.BookView{Book: models.Book{ID: id}, DownloadToken: "tok"}, nil
}

func (m *bookServiceMock) Current(ctx context.Context, claims *models.Claims) ([]models.BookView, error) {
	m.claims = claims
	return []models.BookView{{Book: models.Book{ID: "b1"}, Locked: true}}, nil
}

func (m *bookServiceMock) Create(ctx context.Context, req dto.BookRequest, claims *models.Claims) (*models.Book, error) {
	m.created = req
	return &models.Book{ID: "b-new", Title: req.Title}, nil
}

func (m *bookServiceMock) Update(ctx context.Context, id string, req dto.BookRequest, claims *models.Claims) (*models.Book, error) {
	return &models.Book{ID: id, Title: req.Title}, nil
}

func (m *bookServiceMock) Delete(ctx context.Context, id string, claims *models.Claims) error {
	return nil
}

func (m *bookServiceMock) OpenDownload(token string) (*os.File, dto.DownloadGrant, error) {
	if m.downloadErr != nil {
		return nil, dto.DownloadGrant{}, m.downloadErr
	}
	f, err := os.Open(m.file)
	if err != nil {
		return nil, dto.DownloadGrant{}, err
	}
	return f, dto.DownloadGrant{BookID: "b1", FilePath: "algebra/intro.pdf"}, nil
}

func newBookContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestBookHandlerGetNotYetEntitled(t *testing.T) {
	mock := &bookServiceMock{viewErr: appErrors.ErrNotYetEntitled}
	handler := NewBookHandler(mock)
	c, w := newBookContext(http.MethodGet, "/books/b1", nil)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	c.Set(middleware.ContextUserKey, &models.Claims{SubjectID: "stu", Roles: models.RoleSet{models.RoleStudent}})

	handler.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_YET_ENTITLED")
	assert.Equal(t, "stu", mock.claims.SubjectID)
}

func TestBookHandlerGetWithoutClaims(t *testing.T) {
	handler := NewBookHandler(&bookServiceMock{})
	c, w := newBookContext(http.MethodGet, "/books/b1", nil)

	handler.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookHandlerCurrentAsGuest(t *testing.T) {
	mock := &bookServiceMock{}
	handler := NewBookHandler(mock)
	c, w := newBookContext(http.MethodGet, "/books/current", nil)
	c.Set(middleware.ContextUserKey, models.GuestClaims())

	handler.Current(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.claims.Guest)
	assert.Contains(t, w.Body.String(), `"locked":true`)
}

func TestBookHandlerCreateInvalidBody(t *testing.T) {
	handler := NewBookHandler(&bookServiceMock{})
	c, w := newBookContext(http.MethodPost, "/books", []byte(`invalid`))
	c.Set(middleware.ContextUserKey, &models.Claims{SubjectID: "inst", Roles: models.RoleSet{models.RoleInstructor}})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookHandlerCreate(t *testing.T) {
	mock := &bookServiceMock{}
	handler := NewBookHandler(mock)
	body, _ := json.Marshal(dto.BookRequest{Title: "Algebra", Visibility: "premium", FilePath: "algebra/intro.pdf"})
	c, w := newBookContext(http.MethodPost, "/books", body)
	c.Set(middleware.ContextUserKey, &models.Claims{SubjectID: "inst", Roles: models.RoleSet{models.RoleInstructor}})

	handler.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Algebra", mock.created.Title)
}

func TestBookHandlerDownloadStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intro.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	handler := NewBookHandler(&bookServiceMock{file: path})
	c, w := newBookContext(http.MethodGet, "/downloads/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "intro.pdf")
}

func TestBookHandlerDownloadExpired(t *testing.T) {
	handler := NewBookHandler(&bookServiceMock{downloadErr: appErrors.Clone(appErrors.ErrExpiredCredential, "download link expired")})
	c, w := newBookContext(http.MethodGet, "/downloads/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "EXPIRED_CREDENTIAL")
}
