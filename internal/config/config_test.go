package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the four required env vars. t.Setenv automatically
// restores the previous values when the test finishes.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_CLIENT_ID", "client-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "client-secret")
	t.Setenv("GITHUB_CALLBACK_URL", "http://localhost:8080/auth/github/callback")
	t.Setenv("SESSION_SECRET", "test-session-secret-16+")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("SESSION_COOKIE_NAME", "")
	t.Setenv("SESSION_TTL_HOURS", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.SessionCookieName != DefaultCookieName {
		t.Errorf("SessionCookieName = %q, want %q", cfg.SessionCookieName, DefaultCookieName)
	}
	if cfg.SessionTTL != DefaultSessionTTL {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, DefaultSessionTTL)
	}
	if cfg.Production() {
		t.Error("Production() should be false for the default env")
	}
}

func TestLoad_MissingRequired_ListsAll(t *testing.T) {
	// Clear everything required — the error must name each missing var,
	// not just the first one.
	t.Setenv("GITHUB_CLIENT_ID", "")
	t.Setenv("GITHUB_CLIENT_SECRET", "")
	t.Setenv("GITHUB_CALLBACK_URL", "")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when required vars are missing")
	}

	for _, name := range []string{
		"GITHUB_CLIENT_ID",
		"GITHUB_CLIENT_SECRET",
		"GITHUB_CALLBACK_URL",
		"SESSION_SECRET",
	} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err.Error(), name)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_COOKIE_NAME", "library_session")
	t.Setenv("SESSION_TTL_HOURS", "24")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.SessionCookieName != "library_session" {
		t.Errorf("SessionCookieName = %q", cfg.SessionCookieName)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if !cfg.Production() {
		t.Error("Production() should be true when ENV=production")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}

func TestLoad_InvalidSessionTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TTL_HOURS", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-positive SESSION_TTL_HOURS")
	}
}
