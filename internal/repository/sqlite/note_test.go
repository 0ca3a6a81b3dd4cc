package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

func TestNoteCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	book := createTestBook(t, db.Books(), "Host Book")
	n := db.Notes()

	note := &model.Note{
		BookID: book.ID,
		Page:   42,
		Quote:  "The king was pregnant.",
		Text:   "Gender reveal, chapter 1 style.",
	}
	if err := n.Create(context.Background(), note); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	found, err := n.GetByID(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.BookID != book.ID || found.Page != 42 || found.Text != note.Text {
		t.Errorf("round trip mismatch: %+v", found)
	}
}

// The foreign key is the storage-level backstop for the service's
// "book must exist" rule.
func TestNoteCreate_UnknownBookRejected(t *testing.T) {
	n := newTestDB(t).Notes()

	note := &model.Note{BookID: "no-such-book", Text: "orphan"}
	if err := n.Create(context.Background(), note); err == nil {
		t.Fatal("Create() should fail for a note pointing at a missing book")
	}
}

func TestNoteList_FiltersByBook(t *testing.T) {
	db := newTestDB(t)
	b, n := db.Books(), db.Notes()

	one := createTestBook(t, b, "One")
	two := createTestBook(t, b, "Two")

	for _, bookID := range []string{one.ID, one.ID, two.ID} {
		if err := n.Create(context.Background(), &model.Note{BookID: bookID, Text: "note"}); err != nil {
			t.Fatalf("creating note: %v", err)
		}
	}

	all, err := n.List(context.Background(), "", repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(all) = %d notes, want 3", len(all))
	}

	onlyOne, err := n.List(context.Background(), one.ID, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List(book one) error = %v", err)
	}
	if len(onlyOne) != 2 {
		t.Errorf("List(book one) = %d notes, want 2", len(onlyOne))
	}
	for _, note := range onlyOne {
		if note.BookID != one.ID {
			t.Errorf("filtered list leaked note for book %q", note.BookID)
		}
	}
}

func TestNoteUpdate(t *testing.T) {
	db := newTestDB(t)
	book := createTestBook(t, db.Books(), "Host")
	n := db.Notes()

	note := &model.Note{BookID: book.ID, Text: "before"}
	if err := n.Create(context.Background(), note); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	note.Text = "after"
	note.Page = 7
	if err := n.Update(context.Background(), note); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := n.GetByID(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if found.Text != "after" || found.Page != 7 {
		t.Errorf("update not persisted: %+v", found)
	}
}

func TestNoteDelete(t *testing.T) {
	db := newTestDB(t)
	book := createTestBook(t, db.Books(), "Host")
	n := db.Notes()

	note := &model.Note{BookID: book.ID, Text: "to delete"}
	if err := n.Create(context.Background(), note); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	if err := n.Delete(context.Background(), note.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := n.GetByID(context.Background(), note.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("note still present after delete: err = %v", err)
	}
}

func TestNoteDelete_NotFound(t *testing.T) {
	n := newTestDB(t).Notes()

	err := n.Delete(context.Background(), "no-such-note")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
