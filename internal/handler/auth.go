package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/auth"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/service"
)

// SessionCookie describes how the session cookie is written. The values come
// from configuration so deployments can rename the cookie or shorten the
// session without a code change.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool // true in production — cookie only travels over HTTPS
}

// AuthHandler manages the GitHub OAuth login flow and the session endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → redirect the browser to GitHub's authorization page
//   - HandleCallback → receive the code, exchange it, upsert + set the cookie
//   - HandleStatus   → {authenticated, user|null} for any request
//   - HandleMe       → the logged-in user's profile (401 otherwise)
//   - HandleFailure  → landing spot for denied/failed handshakes
//   - HandleLogout   → clear the session cookie
type AuthHandler struct {
	github  *auth.GitHubProvider
	authSvc *service.AuthService
	cookie  SessionCookie
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	github *auth.GitHubProvider,
	authSvc *service.AuthService,
	cookie SessionCookie,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:  github,
		authSvc: authSvc,
		cookie:  cookie,
		logger:  logger,
	}
}

// HandleLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleCallback verifies the state matches, which
// proves the flow was initiated by this server and not a CSRF attacker.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — enough to approve, short enough to limit risk
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Upsert the user and get a session (AuthService)
//  4. Set the session cookie
//  5. Redirect to the app
//
// A user who clicked "cancel" on GitHub, or a handshake failure, redirects
// to /auth/failure — the abandoned flow leaves no record and no session.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeError(w, errBadState)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, errBadState)
		return
	}

	// Clear the state cookie — it's single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub reports a denied authorization via the error query param
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/auth/failure", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for a GitHub profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, errBadState)
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/auth/failure", http.StatusSeeOther)
		return
	}

	// --- Step 3: Upsert the user, get a session ---
	result, err := h.authSvc.LoginWithGitHub(r.Context(), profile)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.Int64("githubID", profile.ID),
			slog.String("error", err.Error()),
		)
		// A store failure is OURS, not the provider's — generic 500,
		// never the raw error text.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "authentication failed",
		})
		return
	}

	// --- Step 4: Set the session cookie ---
	h.setSessionCookie(w, result.Session)

	// --- Step 5: Redirect to the app ---
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleStatus reports the current authentication state.
//
// HTTP: GET /auth/status (behind OptionalAuth)
//
// Always 200: {"authenticated": bool, "user": User|null}. Anonymous is a
// normal answer here, not an error.
func (h *AuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())

	writeJSON(w, http.StatusOK, statusResponse{
		Authenticated: ok,
		User:          user,
	})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /auth/me (behind RequireAuth)
//
// The gate has already re-fetched the record, so this is a pure read of the
// request context.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't assume the wiring.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "You must be logged in with GitHub to access this resource.",
		})
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: user})
}

// HandleFailure is where failed or denied handshakes land.
//
// HTTP: GET /auth/failure
func (h *AuthHandler) HandleFailure(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"message": "GitHub login failed",
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /auth/logout
//
// GET (not POST) matches the surface this API has always exposed; clients
// link to it directly. Logout just deletes the cookie — the signed session
// stays technically valid until expiry, but the browser can no longer send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// setSessionCookie writes the session cookie.
// HttpOnly keeps it away from JavaScript (XSS), SameSite=Lax sends it on
// top-level navigations (which the OAuth callback is) but not cross-site
// POSTs, and Secure restricts it to HTTPS in production.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    session,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// errBadState is the invalid-OAuth-state error shared by the callback
// checks. writeError maps it to 400 via the validation sentinel.
var errBadState = apperror.ValidationFailed("state", "invalid OAuth state")

type statusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user"` // null when anonymous
}

type meResponse struct {
	User *model.User `json:"user"`
}
