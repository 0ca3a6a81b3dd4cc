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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors right here instead of at
// some distant call site.
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB implements repository.UserRepository on the shared connection pool.
type UserDB struct {
	conn *sql.DB
}

// Upsert inserts or updates a user based on their GitHub ID.
//
// SINGLE-STATEMENT UPSERT:
// This is one INSERT ... ON CONFLICT(github_id) DO UPDATE, not a find-then-
// insert pair. With a find-then-insert, two concurrent first logins for the
// same GitHub account can both observe "not found" and both insert. The
// single statement serializes on the unique index inside sqlite, so exactly
// one row ever exists per GitHub ID no matter how callbacks interleave.
//
// Create path: the freshly generated id, created_at and last_login are all
// written. Update path: ON CONFLICT overwrites the profile fields and
// last_login via `excluded.*` (sqlite's name for the row that failed to
// insert) and leaves id and created_at untouched.
//
// After the write we read the row back and copy it into *user, so the caller
// always holds the post-write snapshot — existing internal ID and original
// created_at included.
func (u *UserDB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, display_name, profile_url, provider, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO UPDATE SET
		   login        = excluded.login,
		   display_name = excluded.display_name,
		   profile_url  = excluded.profile_url,
		   provider     = excluded.provider,
		   last_login   = excluded.last_login`,
		xid.New().String(),
		user.GitHubID,
		user.Login,
		user.DisplayName,
		user.ProfileURL,
		user.Provider,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	fresh, err := u.GetByGitHubID(ctx, user.GitHubID)
	if err != nil {
		return fmt.Errorf("sqlite: reading back upserted user (githubID=%d): %w", user.GitHubID, err)
	}

	*user = *fresh
	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getWhere(ctx, "id = ?", id)
}

// GetByGitHubID retrieves a user by their GitHub numeric ID.
func (u *UserDB) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return u.getWhere(ctx, "github_id = ?", githubID)
}

func (u *UserDB) getWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	var usr model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, display_name, profile_url, provider, created_at, last_login
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&usr.ID,
		&usr.GitHubID,
		&usr.Login,
		&usr.DisplayName,
		&usr.ProfileURL,
		&usr.Provider,
		&usr.CreatedAt,
		&usr.LastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting user (%s %v): %w", where, arg, err)
	}

	return &usr, nil
}
