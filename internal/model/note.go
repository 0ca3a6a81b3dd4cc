package model

import "time"

// Note is a reading note attached to a book.
//
// The JSON field for the body is "note" (not "text") — that's the name the
// API has always used and clients depend on it.
//
// Page uses 0 as "unset"; a set page number is >= 1.
type Note struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	Page      int       `json:"page,omitempty"`
	Quote     string    `json:"quote,omitempty"`
	Text      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
