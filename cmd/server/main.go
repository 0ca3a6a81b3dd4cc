// Package main is the entry point for the personal library server.
//
// main() is deliberately thin: load config, build a logger, make sure the
// data directory exists, hand everything to internal/server. All real logic
// lives in the imported packages so it stays testable without a process.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/personal-library/internal/config"
	"github.com/sakif/personal-library/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors list every missing variable at once — print the
		// whole thing before the logger exists.
		slog.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.Production() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// Ensure the data directory exists before sqlite tries to create the file.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
