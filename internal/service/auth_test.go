package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/auth"
	"github.com/sakif/personal-library/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// A hand-written fake (not a mock framework) keeps tests dependency-free and
// readable — the upsert semantics it simulates are spelled out right here.
type fakeUserRepo struct {
	byID   map[string]*model.User
	byGHID map[int64]*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	upsertErr  error
	getByIDErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:   make(map[string]*model.User),
		byGHID: make(map[int64]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	now := time.Now()
	if existing, ok := f.byGHID[user.GitHubID]; ok {
		// UPDATE path — keep ID and CreatedAt, refresh profile + LastLogin
		existing.Login = user.Login
		existing.DisplayName = user.DisplayName
		existing.ProfileURL = user.ProfileURL
		existing.Provider = user.Provider
		existing.LastLogin = now
		*user = *existing
	} else {
		// INSERT path — assign ID, CreatedAt == LastLogin
		user.ID = fmt.Sprintf("user-fake-%d", f.nextID)
		f.nextID++
		user.CreatedAt = now
		user.LastLogin = now
		copied := *user
		f.byID[user.ID] = &copied
		f.byGHID[user.GitHubID] = &copied
	}
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	u, ok := f.byGHID[githubID]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprintf("%d", githubID))
	}
	copied := *u
	return &copied, nil
}

// newTestAuthService wires an AuthService with the fake repo and a real
// session service (short test secret).
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.SessionService) {
	t.Helper()

	sessions, err := auth.NewSessionService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(repo, sessions, logger), sessions
}

// =========================================================================
// LoginWithGitHub TESTS
// =========================================================================

func TestLoginWithGitHub_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, sessions := newTestAuthService(t, repo)

	profile := &auth.GitHubProfile{
		ID:      42,
		Login:   "alice",
		Name:    "Alice Example",
		HTMLURL: "https://github.com/alice",
	}

	result, err := svc.LoginWithGitHub(context.Background(), profile)
	if err != nil {
		t.Fatalf("LoginWithGitHub() error = %v", err)
	}

	if result.User.ID == "" {
		t.Error("user has no internal ID after login")
	}
	if !result.User.CreatedAt.Equal(result.User.LastLogin) {
		t.Errorf("first login: CreatedAt (%v) != LastLogin (%v)",
			result.User.CreatedAt, result.User.LastLogin)
	}
	if result.User.Provider != auth.ProviderGitHub {
		t.Errorf("Provider = %q, want %q", result.User.Provider, auth.ProviderGitHub)
	}

	// The issued session must decode back to the same identity triple
	payload, err := sessions.Decode(result.Session)
	if err != nil {
		t.Fatalf("decoding issued session: %v", err)
	}
	if payload.UserID != result.User.ID {
		t.Errorf("session UserID = %q, want %q", payload.UserID, result.User.ID)
	}
	if payload.GitHubID != 42 || payload.Login != "alice" {
		t.Errorf("session payload = %+v", payload)
	}
}

func TestLoginWithGitHub_RepeatLogin_KeepsIdentityRefreshesProfile(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	first, err := svc.LoginWithGitHub(context.Background(),
		&auth.GitHubProfile{ID: 42, Login: "alice"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	second, err := svc.LoginWithGitHub(context.Background(),
		&auth.GitHubProfile{ID: 42, Login: "alice2"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if second.User.ID != first.User.ID {
		t.Errorf("internal ID changed: %q → %q", first.User.ID, second.User.ID)
	}
	if !second.User.CreatedAt.Equal(first.User.CreatedAt) {
		t.Errorf("CreatedAt changed: %v → %v", first.User.CreatedAt, second.User.CreatedAt)
	}
	if second.User.Login != "alice2" {
		t.Errorf("Login = %q, want alice2", second.User.Login)
	}
	if second.User.LastLogin.Before(first.User.LastLogin) {
		t.Errorf("LastLogin went backwards")
	}
}

func TestLoginWithGitHub_DistinctUsers(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	a, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubProfile{ID: 1, Login: "a"})
	if err != nil {
		t.Fatalf("login a: %v", err)
	}
	b, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubProfile{ID: 2, Login: "b"})
	if err != nil {
		t.Fatalf("login b: %v", err)
	}

	if a.User.ID == b.User.ID {
		t.Errorf("distinct GitHub identities share internal ID %q", a.User.ID)
	}
}

func TestLoginWithGitHub_NilProfile(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.LoginWithGitHub(context.Background(), nil); err == nil {
		t.Fatal("LoginWithGitHub(nil) should fail")
	}
}

func TestLoginWithGitHub_StoreFailure_NoSession(t *testing.T) {
	repo := newFakeUserRepo()
	repo.upsertErr = errors.New("disk on fire")
	svc, _ := newTestAuthService(t, repo)

	result, err := svc.LoginWithGitHub(context.Background(),
		&auth.GitHubProfile{ID: 42, Login: "alice"})
	if err == nil {
		t.Fatal("LoginWithGitHub() should propagate the store failure")
	}
	if result != nil {
		t.Error("no AuthResult (and no session) may exist after a failed upsert")
	}
}

// =========================================================================
// GetUserByID TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	logged, err := svc.LoginWithGitHub(context.Background(),
		&auth.GitHubProfile{ID: 9, Login: "carol"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), logged.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Login != "carol" {
		t.Errorf("Login = %q, want carol", user.Login)
	}
}

func TestGetUserByID_EmptyID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.GetUserByID(context.Background(), ""); err == nil {
		t.Fatal("GetUserByID(\"\") should fail")
	}
}
