package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/personal-library/internal/apperror"
	"github.com/sakif/personal-library/internal/model"
	"github.com/sakif/personal-library/internal/repository"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents
// collisions: only this package can create a key of type contextKey, so only
// this package can read or write the user value in the context.
type contextKey string

const userKey contextKey = "user"

const unauthorizedBody = `{"error":"unauthorized","message":"You must be logged in with GitHub to access this resource."}`

// Gate decodes session cookies and decides whether a request is
// authenticated. It is constructed once at startup with its dependencies and
// passed to the router — there is no package-level mutable state.
//
// DECODE → RE-FETCH:
// The cookie only carries the identity triple. On every request the gate
// re-fetches the full user record by internal ID, so handlers always see
// current profile data, and a deleted user is immediately locked out even
// though their cookie is still cryptographically valid.
//
// FAILURE POLICY:
// Every failure on this path — missing cookie, bad signature, expired
// session, unknown user, even a database error during the re-fetch — degrades
// the request to anonymous. Store errors are logged (they are operational
// problems worth seeing), but they never turn a GET /api/books into a 500
// just because the session lookup hiccuped.
type Gate struct {
	sessions   *SessionService
	users      repository.UserRepository
	cookieName string
	logger     *slog.Logger
}

// NewGate creates a Gate.
func NewGate(sessions *SessionService, users repository.UserRepository, cookieName string, logger *slog.Logger) *Gate {
	return &Gate{
		sessions:   sessions,
		users:      users,
		cookieName: cookieName,
		logger:     logger,
	}
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// If the session cookie decodes to a live user, the user is stored in the
// request context and the chain continues. Otherwise the request stops with a
// structured 401 body and no side effects.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler that wraps it. Chi applies them in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := g.currentUser(r)
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(unauthorizedBody))
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user to the context if a valid session is
// present, but never blocks the request.
//
// Used on routes like GET /auth/status and the public read endpoints, where
// anonymous access is fine but a logged-in user should be recognisable.
func (g *Gate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := g.currentUser(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		// Always continue — no 401 even without a session
		next.ServeHTTP(w, r)
	})
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request is anonymous.
//
// Usage in handlers:
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // anonymous request
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// currentUser resolves the session cookie to a fresh user record, or nil if
// the request is anonymous for any reason.
//
// COOKIE FLOW:
// 1. Set-Cookie: sid=<session>; HttpOnly; SameSite=Lax (set on login)
// 2. Browser automatically sends Cookie: sid=<session> on later requests
// 3. We read, decode, and re-fetch the user it points at
func (g *Gate) currentUser(r *http.Request) *model.User {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		// http.ErrNoCookie — not an error, just an anonymous request
		return nil
	}

	payload, err := g.sessions.Decode(cookie.Value)
	if err != nil {
		// Expired, tampered or malformed cookie. Browsers keep sending
		// expired cookies until they're replaced, so this is routine.
		g.logger.Debug("session decode failed", slog.String("error", err.Error()))
		return nil
	}

	user, err := g.users.GetByID(r.Context(), payload.UserID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			// A real store failure. Log it, but the request itself just
			// proceeds unauthenticated — one policy for the whole path.
			g.logger.Error("session user lookup failed",
				slog.String("userID", payload.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	return user
}
