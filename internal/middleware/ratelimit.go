package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type contextKey string

// socketAddrKey holds the peer address as the kernel reported it, captured
// before anything rewrites RemoteAddr.
const socketAddrKey contextKey = "socketAddr"

// SocketAddr stashes the request's original RemoteAddr in the context.
// It must be mounted BEFORE chi's RealIP: RealIP overwrites RemoteAddr from
// X-Forwarded-For, and the rate limiter has to key on a value the client
// can't choose. Everything else (logging, handlers) still sees the
// forwarded address.
func SocketAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), socketAddrKey, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// limiterStore hands out a token-bucket limiter per client IP.
//
// WHY PER-IP?
// The OAuth endpoints are unauthenticated by definition — anyone can hit
// /auth/github. A single global bucket would let one abuser lock everyone
// out; per-IP buckets contain the damage. Idle entries are swept lazily on
// each Allow call so the map can't grow without bound.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	r        rate.Limit
	burst    int
	ttl      time.Duration
}

type clientLimiter struct {
	lim     *rate.Limiter
	lastHit time.Time
}

func newLimiterStore(r rate.Limit, burst int, ttl time.Duration) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*clientLimiter),
		r:        r,
		burst:    burst,
		ttl:      ttl,
	}
}

func (s *limiterStore) allow(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// lazy cleanup
	for k, v := range s.limiters {
		if now.Sub(v.lastHit) > s.ttl {
			delete(s.limiters, k)
		}
	}

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{
			lim:     rate.NewLimiter(s.r, s.burst),
			lastHit: now,
		}
		s.limiters[ip] = cl
	}

	cl.lastHit = now
	return cl.lim.Allow()
}

// clientIP extracts the peer address for rate-limit keying. It prefers the
// socket address stashed by SocketAddr, falling back to RemoteAddr — never
// X-Forwarded-For, directly or via RealIP's rewrite: forwarded headers are
// trivially spoofable and this server isn't guaranteed to sit behind a
// trusted proxy.
func clientIP(r *http.Request) string {
	addr, _ := r.Context().Value(socketAddrKey).(string)
	if addr == "" {
		addr = r.RemoteAddr
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(addr)
}

// RateLimit returns middleware that allows each client IP r requests per
// second with the given burst, answering 429 once the bucket is empty.
func RateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	store := newLimiterStore(r, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !store.allow(clientIP(req)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","message":"Too many requests. Slow down and try again."}`))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
