package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

// NoteService handles business logic for reading notes.
//
// It takes BOTH repositories: notes for its own records, and books to check
// that a note's bookId points at a real book before writing. The storage
// layer's foreign key would catch it anyway, but a constraint violation
// surfaces as a 500 — checking here turns it into a proper validation error.
type NoteService struct {
	notes  repository.NoteRepository
	books  repository.BookRepository
	logger *slog.Logger
}

// NewNoteService creates a NoteService.
func NewNoteService(notes repository.NoteRepository, books repository.BookRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		notes:  notes,
		books:  books,
		logger: logger,
	}
}

// NoteInput carries the writable fields of a note.
// The JSON body field is "note", matching the API's historical shape.
type NoteInput struct {
	BookID string `json:"bookId"`
	Page   int    `json:"page"`
	Quote  string `json:"quote"`
	Text   string `json:"note"`
}

// Create validates and saves a new note.
// Rules: bookId required and must reference an existing book; note text
// required; page, if set, must be >= 1.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (*model.Note, error) {
	note, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.notes.Create(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.String("bookId", note.BookID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Info("note created",
		slog.String("id", note.ID),
		slog.String("bookId", note.BookID),
	)

	return note, nil
}

// GetByID retrieves a note by its ID.
func (s *NoteService) GetByID(ctx context.Context, id string) (*model.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	return s.notes.GetByID(ctx, id)
}

// List retrieves notes with pagination, optionally filtered to one book.
func (s *NoteService) List(ctx context.Context, bookID string, limit, offset int) ([]model.Note, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	notes, err := s.notes.List(ctx, strings.TrimSpace(bookID), repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list notes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	return notes, nil
}

// Update replaces an existing note with the validated input (PUT semantics).
func (s *NoteService) Update(ctx context.Context, id string, in NoteInput) (*model.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	note, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	note.ID = id

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("note updated", slog.String("id", note.ID))
	return note, nil
}

// Delete removes a note by its ID.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "note ID is required")
	}

	if err := s.notes.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("note deleted", slog.String("id", id))
	return nil
}

func (s *NoteService) validate(ctx context.Context, in NoteInput) (*model.Note, error) {
	bookID := strings.TrimSpace(in.BookID)
	text := strings.TrimSpace(in.Text)

	if bookID == "" {
		return nil, apperror.ValidationFailed("bookId", "bookId is required")
	}
	if text == "" {
		return nil, apperror.ValidationFailed("note", "note text is required")
	}
	if in.Page < 0 {
		return nil, apperror.ValidationFailed("page", "page must be 1 or greater")
	}

	// The referenced book must exist. A missing book is the CLIENT's
	// mistake, so it maps to a validation error, not a bare not-found.
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("bookId",
				fmt.Sprintf("no book exists with id %s", bookID))
		}
		return nil, fmt.Errorf("checking book %s for note: %w", bookID, err)
	}

	return &model.Note{
		BookID: bookID,
		Page:   in.Page,
		Quote:  strings.TrimSpace(in.Quote),
		Text:   text,
	}, nil
}
