// Package main is the entry point for the secrets server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server. Everything else lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/secrets/internal/config"
	"github.com/sakif/secrets/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env is optional; SECRET is the only required variable.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// === 3. FILE PATHS ===
	// Absolute paths keep templates and static files working when the binary
	// is started from another directory with TEMPLATE_DIR/STATIC_DIR set.
	if abs, err := filepath.Abs(cfg.TemplateDir); err == nil {
		cfg.TemplateDir = abs
	}
	if abs, err := filepath.Abs(cfg.StaticDir); err == nil {
		cfg.StaticDir = abs
	}

	if cfg.StoreDriver == config.DriverSQLite && cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. START ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	startErr := srv.Start()
	if err := srv.Close(); err != nil {
		logger.Error("failed to close user store", slog.String("error", err.Error()))
	}
	if startErr != nil {
		logger.Error("server error", slog.String("error", startErr.Error()))
		os.Exit(1)
	}
}
