// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Handlers only know HTTP, services only know rules, repositories only know
// SQL. Each service takes its repository as an INTERFACE, so tests swap in a
// fake with a one-line change and nothing here imports the sqlite package.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/personal-library/internal/auth"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

// AuthService orchestrates the authentication flow. It is constructed once
// at startup from injected configuration and passed by reference to the HTTP
// layer — all state lives in the struct, nothing is process-global.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users    repository.UserRepository → read/write user records
//   - sessions *auth.SessionService      → encode/decode session cookies
//   - logger   *slog.Logger              → structured logging
type AuthService struct {
	users    repository.UserRepository
	sessions *auth.SessionService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions *auth.SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// AuthResult bundles the upserted user and the issued session string so the
// HTTP handler can set the cookie and respond in one step.
type AuthResult struct {
	User    *model.User
	Session string
}

// LoginWithGitHub completes a GitHub OAuth callback.
//
// After the handler exchanges the code for a GitHubProfile, this method:
//
//  1. Upserts the user record (insert on first login, profile + last_login
//     refresh on every later login — one write either way)
//  2. Encodes the fresh record into a session string
//
// Any failure aborts the login: no session is issued on a failed upsert, so
// a database outage can never hand out a cookie for a record that was never
// written.
//
// WHAT THIS METHOD DOES NOT DO:
//   - It does NOT set cookies (that's the handler's job — HTTP concern)
//   - It does NOT talk to GitHub (the provider did that already)
func (s *AuthService) LoginWithGitHub(ctx context.Context, profile *auth.GitHubProfile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: GitHub profile must not be nil")
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub profile has no ID")
	}

	// Build the record from profile data. Upsert fills in ID and timestamps
	// and refreshes the struct with the post-write snapshot.
	user := &model.User{
		GitHubID:    profile.ID,
		Login:       profile.Login,
		DisplayName: profile.Name,
		ProfileURL:  profile.HTMLURL,
		Provider:    auth.ProviderGitHub,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", profile.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	session, err := s.sessions.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:    user,
		Session: session,
	}, nil
}

// GetUserByID returns the user for the given internal ID.
// Used by handlers that need a record outside the middleware path.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
