// Package repository defines the storage interfaces the rest of the app
// programs against. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/personal-library/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists library accounts keyed by GitHub identity.
type UserRepository interface {
	// Upsert inserts or updates the record for user.GitHubID in a single
	// atomic statement, then refreshes *user with the post-write snapshot
	// read back from the store. On first login it assigns ID and CreatedAt;
	// on every login it overwrites the profile fields and LastLogin.
	// Two concurrent first logins for the same GitHubID serialize on the
	// unique index and produce exactly one record.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

type BookRepository interface {
	// Create persists a new book. The repository assigns ID, CreatedAt and
	// UpdatedAt on *book before writing — callers (and fakes) must not
	// supply their own.
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, opts ListOptions) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	// Delete removes the book and all notes attached to it.
	Delete(ctx context.Context, id string) error
}

type NoteRepository interface {
	// Create persists a new note, assigning ID and timestamps like
	// BookRepository.Create does.
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, id string) (*model.Note, error)
	// List returns notes, newest first. A non-empty bookID restricts the
	// result to that book's notes.
	List(ctx context.Context, bookID string, opts ListOptions) ([]model.Note, error)
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, id string) error
}
