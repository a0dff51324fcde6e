package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/setgrouper/internal/cachestore"
	"github.com/phrazzld/setgrouper/internal/cardcache"
	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/platform/metrics"
	"github.com/phrazzld/setgrouper/internal/platform/scryfall"
	"github.com/phrazzld/setgrouper/internal/service"
	"github.com/phrazzld/setgrouper/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	metrics *metrics.Metrics
	store   store.EntryStore
	cache   *cardcache.Cache

	cardSetService service.CardSetService
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	entryStore, err := cachestore.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	return newApplicationWithStore(cfg, logger, entryStore, nil)
}

// newApplicationWithStore wires the services over an already opened store.
// A nil searcher selects the HTTP client built from configuration.
func newApplicationWithStore(
	cfg *config.Config,
	logger *slog.Logger,
	entryStore store.EntryStore,
	searcher scryfall.Searcher,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
		store:   entryStore,
	}

	app.cache = cardcache.New(entryStore,
		cardcache.WithExpiration(cfg.Cache.Expiration),
		cardcache.WithRetention(cfg.Cache.RetentionCount),
		cardcache.WithLogger(logger),
		cardcache.WithMetrics(app.metrics),
	)

	if searcher == nil {
		searcher = scryfall.NewClient(cfg.Scryfall,
			scryfall.WithLogger(logger),
			scryfall.WithMetrics(app.metrics),
		)
	}

	var err error
	app.cardSetService, err = service.NewCardSetService(
		app.cache,
		searcher,
		service.Config{
			Concurrency: cfg.Pipeline.Concurrency,
			Policy:      service.Policy{ExcludeZeroPrice: cfg.Pipeline.ExcludeZeroPrice},
		},
		logger,
		app.metrics,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create card set service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down and releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("error closing cache store", slog.String("error", err.Error()))
		}
		app.store = nil
	}
	app.logger.Info("application shutdown completed")
}
