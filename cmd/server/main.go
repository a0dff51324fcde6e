// Package main implements the entry point for the set grouper API server,
// which resolves deck lists into per-set card groups over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv("SETGROUPER_CONFIG")); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run loads configuration, builds the application and serves until ctx is
// cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := initializeApp(configPath)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp(configPath string) (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Int("concurrency", cfg.Pipeline.Concurrency))
	if cfg.Cache.DatabaseURL != "" {
		slog.Debug("database configuration", slog.Bool("url_present", true))
	}

	return cfg, nil
}
