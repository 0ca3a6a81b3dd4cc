package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

var _ repository.BookRepository = (*BookDB)(nil)

// BookDB implements repository.BookRepository on the shared connection pool.
type BookDB struct {
	conn *sql.DB
}

// Create inserts a new book.
//
// ID GENERATION WITH xid:
// xid generates 20-char, URL-safe IDs that sort by creation time. The
// repository assigns it (plus timestamps) so every caller gets the same
// behavior — the service layer never invents IDs.
//
// Tags are marshalled to a JSON array in a TEXT column; sqlite has no array
// type and we never need to query inside the tags.
func (b *BookDB) Create(ctx context.Context, book *model.Book) error {
	book.ID = xid.New().String()

	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	tags, err := marshalTags(book.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding book tags: %w", err)
	}

	_, err = b.conn.ExecContext(ctx,
		`INSERT INTO books (id, title, author, isbn, genre, status, rating, start_date, finish_date, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Status,
		book.Rating,
		book.StartDate,
		book.FinishDate,
		tags,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating book: %w", err)
	}

	return nil
}

// GetByID retrieves a single book by its ID.
// Returns apperror.ErrNotFound if no book exists with that ID.
func (b *BookDB) GetByID(ctx context.Context, id string) (*model.Book, error) {
	row := b.conn.QueryRowContext(ctx,
		`SELECT id, title, author, isbn, genre, status, rating, start_date, finish_date, tags, created_at, updated_at
		 FROM books
		 WHERE id = ?`,
		id,
	)

	book, err := scanBook(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("book", id)
		}
		return nil, fmt.Errorf("sqlite: getting book %s: %w", id, err)
	}

	return book, nil
}

// List retrieves books newest-first with pagination.
func (b *BookDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Book, error) {
	rows, err := b.conn.QueryContext(ctx,
		`SELECT id, title, author, isbn, genre, status, rating, start_date, finish_date, tags, created_at, updated_at
		 FROM books
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books: %w", err)
	}
	defer rows.Close()

	// Initialise to an empty slice (not nil) so the JSON response is []
	// rather than null when there are no books.
	books := []model.Book{}
	for rows.Next() {
		book, err := scanBook(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning book row: %w", err)
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating book rows: %w", err)
	}

	return books, nil
}

// Update replaces every mutable field of an existing book.
// Returns apperror.ErrNotFound if the book doesn't exist.
func (b *BookDB) Update(ctx context.Context, book *model.Book) error {
	book.UpdatedAt = time.Now()

	tags, err := marshalTags(book.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding book tags: %w", err)
	}

	res, err := b.conn.ExecContext(ctx,
		`UPDATE books
		 SET title = ?, author = ?, isbn = ?, genre = ?, status = ?, rating = ?,
		     start_date = ?, finish_date = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Status,
		book.Rating,
		book.StartDate,
		book.FinishDate,
		tags,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating book %s: %w", book.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of book %s: %w", book.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("book", book.ID)
	}

	return nil
}

// Delete removes a book and all notes attached to it, in one transaction.
// Either both deletions happen or neither does — no orphaned notes and no
// books stripped of their notes by a failure halfway through.
func (b *BookDB) Delete(ctx context.Context, id string) error {
	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: starting delete of book %s: %w", id, err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting notes for book %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting book %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of book %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("book", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of book %s: %w", id, err)
	}

	return nil
}

// scanBook reads one book row. It takes the Scan function (from sql.Row or
// sql.Rows) so GetByID and List share the column order in exactly one place.
func scanBook(scan func(dest ...any) error) (*model.Book, error) {
	var book model.Book
	var tags string

	err := scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Genre,
		&book.Status,
		&book.Rating,
		&book.StartDate,
		&book.FinishDate,
		&tags,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &book.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for book %s: %w", book.ID, err)
	}

	return &book, nil
}

// marshalTags encodes tags as a JSON array, with nil normalised to [] so the
// column never holds the string "null".
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
