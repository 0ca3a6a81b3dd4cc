package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

var _ repository.NoteRepository = (*NoteDB)(nil)

// NoteDB implements repository.NoteRepository on the shared connection pool.
type NoteDB struct {
	conn *sql.DB
}

// Create inserts a new note. The foreign key on book_id means sqlite itself
// rejects a note pointing at a book that doesn't exist — the service layer
// checks first to return a friendlier validation error, this is the backstop.
func (n *NoteDB) Create(ctx context.Context, note *model.Note) error {
	note.ID = xid.New().String()

	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := n.conn.ExecContext(ctx,
		`INSERT INTO notes (id, book_id, page, quote, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.BookID,
		note.Page,
		note.Quote,
		note.Text,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	return nil
}

// GetByID retrieves a single note by its ID.
// Returns apperror.ErrNotFound if no note exists with that ID.
func (n *NoteDB) GetByID(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note

	err := n.conn.QueryRowContext(ctx,
		`SELECT id, book_id, page, quote, note, created_at, updated_at
		 FROM notes
		 WHERE id = ?`,
		id,
	).Scan(
		&note.ID,
		&note.BookID,
		&note.Page,
		&note.Quote,
		&note.Text,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}

	return &note, nil
}

// List retrieves notes newest-first. A non-empty bookID restricts the result
// to that book's notes.
func (n *NoteDB) List(ctx context.Context, bookID string, opts repository.ListOptions) ([]model.Note, error) {
	query := `SELECT id, book_id, page, quote, note, created_at, updated_at
	          FROM notes`
	args := []any{}
	if bookID != "" {
		query += ` WHERE book_id = ?`
		args = append(args, bookID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := n.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var note model.Note
		if err := rows.Scan(
			&note.ID,
			&note.BookID,
			&note.Page,
			&note.Quote,
			&note.Text,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating note rows: %w", err)
	}

	return notes, nil
}

// Update replaces every mutable field of an existing note.
// Returns apperror.ErrNotFound if the note doesn't exist.
func (n *NoteDB) Update(ctx context.Context, note *model.Note) error {
	note.UpdatedAt = time.Now()

	res, err := n.conn.ExecContext(ctx,
		`UPDATE notes
		 SET book_id = ?, page = ?, quote = ?, note = ?, updated_at = ?
		 WHERE id = ?`,
		note.BookID,
		note.Page,
		note.Quote,
		note.Text,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %s: %w", note.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of note %s: %w", note.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("note", note.ID)
	}

	return nil
}

// Delete removes a note by its ID.
// Returns apperror.ErrNotFound if the note doesn't exist.
func (n *NoteDB) Delete(ctx context.Context, id string) error {
	res, err := n.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of note %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("note", id)
	}

	return nil
}
