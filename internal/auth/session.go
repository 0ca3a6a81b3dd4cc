// Package auth provides the GitHub OAuth handshake, the session codec and the
// auth middleware for the library API.
//
// SESSION FLOW OVERVIEW:
// 1. User visits /auth/github → redirected to GitHub
// 2. GitHub calls back /auth/github/callback with a code
// 3. Server exchanges the code for a GitHub profile, upserts the user in DB
// 4. Server encodes a minimal session payload into a signed cookie
// 5. On subsequent requests, middleware decodes the cookie, re-fetches the
//    full user record and attaches it to the request context
//
// WHY A SIGNED COOKIE INSTEAD OF A SERVER-SIDE SESSION STORE?
// The signature makes the payload tamper-proof without any session table or
// cache. All the server needs to re-identify the user is the internal ID
// inside the cookie — the full record is always re-read from the database,
// so the cookie can never go stale beyond the three identity fields it holds.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/personal-library/internal/model"
)

// DefaultSessionTTL is how long an issued session stays valid.
// Seven days matches the cookie MaxAge the API has always used.
const DefaultSessionTTL = 7 * 24 * time.Hour

const sessionIssuer = "personal-library"

// SessionPayload is the minimal projection of a user carried inside the
// session cookie: just enough to re-identify the record on later requests.
//
// It deliberately does NOT hold the full user. Profile fields change on every
// login, so anything beyond the identity triple would go stale inside the
// cookie. It also never holds the GitHub access token — that is used once
// during the callback and discarded.
type SessionPayload struct {
	UserID   string // internal record ID (the JWT "sub" claim)
	GitHubID int64
	Login    string
}

// sessionClaims is the on-the-wire JWT shape of a SessionPayload.
// The internal ID rides in the registered "sub" claim; the two GitHub
// identity fields are private claims.
type sessionClaims struct {
	GitHubID int64  `json:"githubId"`
	Login    string `json:"login"`
	jwt.RegisteredClaims
}

// SessionService encodes users into signed session strings and back.
//
// It holds the HMAC secret used to sign and verify sessions. The same secret
// must be used for both operations — keep it out of version control and use a
// dedicated value, not the GitHub client secret.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a SessionService with the given secret and
// session lifetime. A non-positive ttl falls back to DefaultSessionTTL.
// The secret should be at least 32 bytes of random data in production.
func NewSessionService(secret string, ttl time.Duration) (*SessionService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured session lifetime. The HTTP layer uses it for the
// cookie MaxAge so the cookie and the signature expire together.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue encodes a session for the given user.
//
// Only the identity triple (internal ID, GitHub ID, login) goes into the
// payload — never the full record, never any provider token.
//
// Signing algorithm: HS256 (HMAC-SHA256). Symmetric and fast — right for a
// single-server deployment where issuer and verifier share one secret.
func (s *SessionService) Issue(user *model.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("auth: cannot issue a session without a user ID")
	}
	return s.issue(user, s.ttl)
}

// IssueWithDuration encodes a session with a custom lifetime.
// Used by tests to mint already-expired sessions.
func (s *SessionService) IssueWithDuration(user *model.User, d time.Duration) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("auth: cannot issue a session without a user ID")
	}
	return s.issue(user, d)
}

func (s *SessionService) issue(user *model.User, d time.Duration) (string, error) {
	now := time.Now()

	c := sessionClaims{
		GitHubID: user.GitHubID,
		Login:    user.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    sessionIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}

	return signed, nil
}

// Decode parses and verifies a session string and returns its payload.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Session is not expired
//   - Issuer matches (prevents tokens minted by other apps with our library)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Plus our own structural checks: the subject (internal ID) must be non-empty
// and the GitHub ID non-zero. A payload failing any check is an error here;
// the middleware translates every decode error into "anonymous request"
// rather than failing the request.
//
// Decode performs no I/O, so decoding the same session twice always yields
// the same payload.
func (s *SessionService) Decode(session string) (*SessionPayload, error) {
	token, err := jwt.ParseWithClaims(
		session,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: session expired")
		}
		return nil, fmt.Errorf("auth: invalid session: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid session claims")
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("auth: session has no user ID")
	}
	if c.GitHubID == 0 {
		return nil, fmt.Errorf("auth: session has no GitHub ID")
	}

	return &SessionPayload{
		UserID:   c.Subject,
		GitHubID: c.GitHubID,
		Login:    c.Login,
	}, nil
}
