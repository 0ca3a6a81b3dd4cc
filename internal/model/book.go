package model

import "time"

// Reading statuses a book can be in. Status drives one business rule:
// a rating is only allowed once the book is finished.
const (
	StatusWantToRead = "want-to-read"
	StatusReading    = "reading"
	StatusFinished   = "finished"
)

// Book represents one entry in the personal library.
//
// StartDate and FinishDate are free-form strings, not time.Time — people
// record "2024", "March 2024" or "2024-03-01" and we don't want to reject
// any of those. The service layer normalizes the common "NA"/"N/A" filler
// values to empty.
//
// Rating uses 0 as "unset" (JSON omitempty drops it); a set rating is 1–5.
type Book struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	ISBN       string    `json:"isbn,omitempty"`
	Genre      string    `json:"genre,omitempty"`
	Status     string    `json:"status"` // one of the Status* constants
	Rating     int       `json:"rating,omitempty"`
	StartDate  string    `json:"startDate,omitempty"`
	FinishDate string    `json:"finishDate,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
