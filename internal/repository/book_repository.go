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

const bookColumns = `id, title, author, visibility, session_ids, file_path, created_by, created_at, updated_at`

// BookRepository persists library books.
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository constructs the repository.
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

// List returns all books ordered by title.
func (r *BookRepository) List(ctx context.Context) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY title`
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// FindByID returns a book by id.
func (r *BookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	var book models.Book
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return &book, nil
}

// Create inserts a book.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	const query = `INSERT INTO books (id, title, author, visibility, session_ids, file_path, created_by, created_at, updated_at)
        VALUES (:id, :title, :author, :visibility, :session_ids, :file_path, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// Update persists changes to a book.
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	const query = `UPDATE books SET title = :title, author = :author, visibility = :visibility, session_ids = :session_ids,
        file_path = :file_path, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, book)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a book.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
