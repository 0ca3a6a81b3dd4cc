// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the binary as a single
// file. No separate database server to install, configure, or manage. For a
// personal library (one user base, one server) that's exactly the right
// amount of infrastructure. Use ":memory:" for tests.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB connection pool. The per-collection repositories
// (Users, Books, Notes) share this pool; the server owns the lifecycle and
// closes it on shutdown.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/library.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't actually connect — Ping forces the first connection
	// so a bad path or permissions problem surfaces here, not on the first
	// query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; notes reference books.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// Books returns the book repository backed by this database.
func (db *DB) Books() *BookDB { return &BookDB{conn: db.conn} }

// Notes returns the note repository backed by this database.
func (db *DB) Notes() *NoteDB { return &NoteDB{conn: db.conn} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; a real migration tool (golang-migrate) only pays off
// once the schema starts evolving under running deployments.
func (db *DB) migrate() error {
	// users: github_id is UNIQUE — each GitHub account maps to exactly one
	// row, and the unique index is what makes Upsert's ON CONFLICT atomic.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			github_id    INTEGER NOT NULL UNIQUE,
			login        TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			profile_url  TEXT NOT NULL DEFAULT '',
			provider     TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// books: tags stored as a JSON array in a TEXT column — sqlite has no
	// native array type and we never query inside tags.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			author      TEXT NOT NULL,
			isbn        TEXT NOT NULL DEFAULT '',
			genre       TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			rating      INTEGER NOT NULL DEFAULT 0,
			start_date  TEXT NOT NULL DEFAULT '',
			finish_date TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating books table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			book_id    TEXT NOT NULL REFERENCES books(id),
			page       INTEGER NOT NULL DEFAULT 0,
			quote      TEXT NOT NULL DEFAULT '',
			note       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_notes_book_id ON notes(book_id);
	`)
	if err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}

	return nil
}
