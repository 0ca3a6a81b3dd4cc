// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency — database, session codec,
// OAuth provider, services, handlers, middleware — is wired here, in one
// place, then handed to the router. main.go stays minimal and the layers
// below never construct each other.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/sakif/personal-library/internal/auth"
	"github.com/sakif/personal-library/internal/config"
	"github.com/sakif/personal-library/internal/handler"
	"github.com/sakif/personal-library/internal/middleware"
	sqliteRepo "github.com/sakif/personal-library/internal/repository/sqlite"
	"github.com/sakif/personal-library/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The server owns the database connection: when it shuts down, the
// connection must be closed to flush the WAL and release the file lock.
// Start() handles that during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server from the given config, assembling the full
// dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs — services get repository
// interfaces, handlers get services, neither touches HTTP or SQL outside
// its own layer.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /auth/github           → redirect to GitHub's consent page
//	GET    /auth/github/callback  → complete the OAuth handshake
//	GET    /auth/status           → {authenticated, user|null}
//	GET    /auth/me               → current user (401 if anonymous)
//	GET    /auth/failure          → failed/denied handshakes land here
//	GET    /auth/logout           → clear the session cookie
//	GET    /api/books             → list (public)
//	GET    /api/books/{id}        → get (public)
//	POST   /api/books             → create (auth)
//	PUT    /api/books/{id}        → update (auth)
//	DELETE /api/books/{id}        → delete, cascades notes (auth)
//	GET    /api/notes             → list, ?bookId= filter (public)
//	GET    /api/notes/{id}        → get (public)
//	POST   /api/notes             → create (auth)
//	PUT    /api/notes/{id}        → update (auth)
//	DELETE /api/notes/{id}        → delete (auth)
//
// MIDDLEWARE ORDER MATTERS — it executes in the order it's added:
// RequestID → SocketAddr → RealIP → Recoverer → Logger. The /auth group additionally
// carries a per-IP rate limit, because those endpoints are reachable
// without a session and drive outbound calls to GitHub.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	// SocketAddr must run before RealIP: the rate limiter keys on the raw
	// socket address, not the rewritable X-Forwarded-For value.
	s.router.Use(middleware.SocketAddr)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth plumbing ===
	sessions, err := auth.NewSessionService(s.config.SessionSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}

	github := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	gate := auth.NewGate(sessions, s.db.Users(), s.config.SessionCookieName, s.logger)

	authService := service.NewAuthService(s.db.Users(), sessions, s.logger)
	authHandler := handler.NewAuthHandler(github, authService, handler.SessionCookie{
		Name:   s.config.SessionCookieName,
		TTL:    sessions.TTL(),
		Secure: s.config.Production(),
	}, s.logger)

	bookService := service.NewBookService(s.db.Books(), s.logger)
	bookHandler := handler.NewBookHandler(bookService, s.logger)

	noteService := service.NewNoteService(s.db.Notes(), s.db.Books(), s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)

	// === Auth routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Limit(1), 10))

		r.Get("/github", authHandler.HandleLogin)
		r.Get("/github/callback", authHandler.HandleCallback)
		r.Get("/failure", authHandler.HandleFailure)
		r.Get("/logout", authHandler.HandleLogout)

		r.With(gate.OptionalAuth).Get("/status", authHandler.HandleStatus)
		r.With(gate.RequireAuth).Get("/me", authHandler.HandleMe)
	})

	// === API routes ===
	// Reads are public. Writes require a session.
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/books", bookHandler.HandleList)
		r.Get("/books/{id}", bookHandler.HandleGetByID)
		r.Get("/notes", noteHandler.HandleList)
		r.Get("/notes/{id}", noteHandler.HandleGetByID)

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAuth)

			r.Post("/books", bookHandler.HandleCreate)
			r.Put("/books/{id}", bookHandler.HandleUpdate)
			r.Delete("/books/{id}", bookHandler.HandleDelete)

			r.Post("/notes", noteHandler.HandleCreate)
			r.Put("/notes/{id}", noteHandler.HandleUpdate)
			r.Delete("/notes/{id}", noteHandler.HandleDelete)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown:
//
//  1. Stop accepting new connections on SIGINT/SIGTERM
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("env", s.config.Env),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
