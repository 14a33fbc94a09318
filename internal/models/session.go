package models

import "time"

// Session is a scheduled run of a training with an inclusive date window.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	BeginDate time.Time `db:"begin_date" json:"begin_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
