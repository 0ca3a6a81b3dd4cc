// Package config loads application configuration from the environment.
//
// WHY A SEPARATE PACKAGE?
// Every required setting is checked here, once, at startup. If the GitHub
// OAuth credentials or the session secret are missing, the process refuses to
// start with ONE error listing everything that's wrong — no half-configured
// server that explodes on the first login attempt.
//
// A local .env file is loaded first if present (godotenv), so development
// doesn't require exporting variables by hand. Real environment variables
// always win over .env values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the optional settings.
const (
	DefaultPort       = 8080
	DefaultDBPath     = "data/library.db"
	DefaultCookieName = "sid"
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Config holds all runtime configuration.
//
// Required (startup fails without them):
//   - GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET / GITHUB_CALLBACK_URL
//     → OAuth app credentials from https://github.com/settings/developers
//   - SESSION_SECRET → HMAC key for the session cookie. Use a dedicated
//     secret, NOT the GitHub client secret. openssl rand -hex 32 works.
//
// Optional: PORT, DB_PATH, SESSION_COOKIE_NAME, SESSION_TTL_HOURS, ENV.
type Config struct {
	Env    string // "development" or "production"
	Port   int
	DBPath string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	SessionSecret     string
	SessionCookieName string
	SessionTTL        time.Duration
}

// Production reports whether the app runs in production mode.
// It controls the Secure flag on cookies — behind HTTPS the session cookie
// must only travel over TLS.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment (and .env, if present).
//
// It returns a single error naming EVERY missing required variable, so a
// fresh deployment gets the full list on the first failed start instead of
// one variable per restart.
func Load() (Config, error) {
	// Ignore the error: a missing .env file is the normal case outside dev.
	_ = godotenv.Load()

	cfg := Config{
		Env:                envOr("ENV", "development"),
		Port:               DefaultPort,
		DBPath:             envOr("DB_PATH", DefaultDBPath),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionCookieName:  envOr("SESSION_COOKIE_NAME", DefaultCookieName),
		SessionTTL:         DefaultSessionTTL,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if ttlStr := os.Getenv("SESSION_TTL_HOURS"); ttlStr != "" {
		hours, err := strconv.Atoi(ttlStr)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("config: invalid SESSION_TTL_HOURS %q", ttlStr)
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}

	// Collect ALL missing required vars before failing
	var missing []string
	for _, v := range []struct {
		name, value string
	}{
		{"GITHUB_CLIENT_ID", cfg.GitHubClientID},
		{"GITHUB_CLIENT_SECRET", cfg.GitHubClientSecret},
		{"GITHUB_CALLBACK_URL", cfg.GitHubCallbackURL},
		{"SESSION_SECRET", cfg.SessionSecret},
	} {
		if strings.TrimSpace(v.value) == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return Config{}, errors.New("config: missing required env vars: " + strings.Join(missing, ", "))
	}

	return cfg, nil
}

// envOr returns the environment value for key, or fallback if unset/empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
