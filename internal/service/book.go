package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

// Validation constants — named, not magic numbers, so error messages and
// rules stay in sync.
const (
	MaxTitleLength   = 300
	MaxAuthorLength  = 200
	MinRating        = 1
	MaxRating        = 5
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// BookService handles business logic for library books.
type BookService struct {
	repo   repository.BookRepository
	logger *slog.Logger
}

// NewBookService creates a BookService.
func NewBookService(repo repository.BookRepository, logger *slog.Logger) *BookService {
	return &BookService{
		repo:   repo,
		logger: logger,
	}
}

// BookInput carries the writable fields of a book, as received from a client.
// The service owns validation; the handler just decodes JSON into this.
type BookInput struct {
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	ISBN       string   `json:"isbn"`
	Genre      string   `json:"genre"`
	Status     string   `json:"status"`
	Rating     int      `json:"rating"`
	StartDate  string   `json:"startDate"`
	FinishDate string   `json:"finishDate"`
	Tags       []string `json:"tags"`
}

// Create validates and saves a new book.
//
// The rules mirror what this API has always enforced:
//   - title, author, status required
//   - status one of want-to-read / reading / finished
//   - rating, if set, is 1–5 AND only allowed when status is "finished"
//   - finishDate values like "NA", "N/A" or blanks are treated as unset
func (s *BookService) Create(ctx context.Context, in BookInput) (*model.Book, error) {
	book, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, book); err != nil {
		s.logger.Error("failed to create book",
			slog.String("title", book.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating book: %w", err)
	}

	s.logger.Info("book created",
		slog.String("id", book.ID),
		slog.String("title", book.Title),
	)

	return book, nil
}

// GetByID retrieves a book by its ID.
// Returns apperror.ErrNotFound if the book doesn't exist.
func (s *BookService) GetByID(ctx context.Context, id string) (*model.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "book ID is required")
	}

	return s.repo.GetByID(ctx, id)
}

// List retrieves books with pagination. Limit is clamped to 1–100
// (default 20) so a caller can't request the entire shelf history at once.
func (s *BookService) List(ctx context.Context, limit, offset int) ([]model.Book, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	books, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list books", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing books: %w", err)
	}

	return books, nil
}

// Update replaces an existing book with the validated input.
//
// PUT semantics: the input is the complete new state, not a patch. A field
// left empty in the input ends up empty in the record. The same validation
// rules apply as on Create.
func (s *BookService) Update(ctx context.Context, id string, in BookInput) (*model.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "book ID is required")
	}

	book, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	book.ID = id

	if err := s.repo.Update(ctx, book); err != nil {
		// NotFound is a normal outcome here, not a server failure
		return nil, err
	}

	s.logger.Info("book updated",
		slog.String("id", book.ID),
		slog.String("title", book.Title),
	)

	return book, nil
}

// Delete removes a book and its notes.
// Returns apperror.ErrNotFound if the book doesn't exist.
func (s *BookService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "book ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("book deleted", slog.String("id", id))
	return nil
}

// validate applies the book rules and builds the model from the input.
func (s *BookService) validate(in BookInput) (*model.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if author == "" {
		return nil, apperror.ValidationFailed("author", "author is required")
	}
	if len(author) > MaxAuthorLength {
		return nil, apperror.ValidationFailed("author",
			fmt.Sprintf("author must be %d characters or less", MaxAuthorLength))
	}

	switch in.Status {
	case model.StatusWantToRead, model.StatusReading, model.StatusFinished:
	case "":
		return nil, apperror.ValidationFailed("status", "status is required")
	default:
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of: %s, %s, %s",
				model.StatusWantToRead, model.StatusReading, model.StatusFinished))
	}

	if in.Rating != 0 {
		if in.Rating < MinRating || in.Rating > MaxRating {
			return nil, apperror.ValidationFailed("rating",
				fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
		}
		if in.Status != model.StatusFinished {
			return nil, apperror.ValidationFailed("rating",
				`rating is only allowed when status is "finished"`)
		}
	}

	return &model.Book{
		Title:      title,
		Author:     author,
		ISBN:       strings.TrimSpace(in.ISBN),
		Genre:      strings.TrimSpace(in.Genre),
		Status:     in.Status,
		Rating:     in.Rating,
		StartDate:  strings.TrimSpace(in.StartDate),
		FinishDate: normalizeFinishDate(in.FinishDate),
		Tags:       in.Tags,
	}, nil
}

// normalizeFinishDate treats the common "not applicable" spellings as unset.
// People import reading lists from spreadsheets where the column is filled
// with NA placeholders; storing those as real dates would be noise.
func normalizeFinishDate(finishDate string) string {
	cleaned := strings.ToLower(strings.TrimSpace(finishDate))
	if cleaned == "" || cleaned == "na" || cleaned == "n/a" {
		return ""
	}
	return strings.TrimSpace(finishDate)
}
