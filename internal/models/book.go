package models

import (
	"time"

	"github.com/lib/pq"
)

// Visibility controls who may read a resource.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPremium Visibility = "premium"
)

// Book is a library resource attached to zero or more sessions.
type Book struct {
	ID         string         `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	Author     string         `db:"author" json:"author"`
	Visibility Visibility     `db:"visibility" json:"visibility"`
	SessionIDs pq.StringArray `db:"session_ids" json:"session_ids"`
	FilePath   string         `db:"file_path" json:"-"`
	CreatedBy  string         `db:"created_by" json:"created_by"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// OwnerID returns the creator of the book.
func (b Book) OwnerID() string { return b.CreatedBy }

// BookView is a book as returned to a caller, with an optional download link.
type BookView struct {
	Book
	DownloadToken     string     `json:"download_token,omitempty"`
	DownloadExpiresAt *time.Time `json:"download_expires_at,omitempty"`
	Locked            bool       `json:"locked"`
}
