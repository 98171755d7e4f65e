package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/martinslog/integra-backend/internal/config"
	"github.com/martinslog/integra-backend/internal/configstore"
	"github.com/martinslog/integra-backend/internal/logging"
	"github.com/martinslog/integra-backend/internal/store"
	"github.com/martinslog/integra-backend/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"database", cfg.Database.Path,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Open storage: creates the file if absent, then applies the
	// additive schema migration. Any failure here is fatal because the
	// declared record shape would not match storage.
	st, err := store.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("database ready", "path", cfg.Database.Path)

	// Seed default option lists for groups that have no rows yet.
	ctx := context.Background()
	err = st.WithTx(ctx, func(tx *sqlx.Tx) error {
		return configstore.Bootstrap(ctx, tx)
	})
	if err != nil {
		slog.Error("failed to bootstrap configuration defaults", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(st, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
