// Package cachestore opens the configured cache substrate.
package cachestore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/platform/memory"
	"github.com/phrazzld/setgrouper/internal/platform/postgres"
	"github.com/phrazzld/setgrouper/internal/platform/redis"
	"github.com/phrazzld/setgrouper/internal/platform/sqlite"
	"github.com/phrazzld/setgrouper/internal/store"
)

// Open connects to the backend named by cfg.Backend, applying migrations
// where the backend has a schema. The caller owns the returned store.
func Open(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (store.EntryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	quota := store.Quota{MaxBytes: cfg.MaxBytes}
	log := logger.With(slog.String("backend", cfg.Backend))

	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath, quota, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}
		log.Info("cache store ready", slog.String("path", cfg.SQLitePath))
		return s, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres cache: %w", err)
		}
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate postgres cache: %w", err)
		}
		log.Info("cache store ready")
		return postgres.NewPostgresEntryStore(db, quota, logger), nil

	case config.BackendRedis:
		s, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, quota, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis cache: %w", err)
		}
		log.Info("cache store ready", slog.String("addr", cfg.RedisAddr))
		return s, nil

	case config.BackendMemory:
		log.Info("cache store ready")
		return memory.NewStore(quota), nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
