package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/setgrouper/internal/aggregate"
	"github.com/phrazzld/setgrouper/internal/cardcache"
	"github.com/phrazzld/setgrouper/internal/domain"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/platform/metrics"
	"github.com/phrazzld/setgrouper/internal/platform/scryfall"
	"github.com/phrazzld/setgrouper/internal/task"
)

// MaxConcurrency bounds the number of names resolved at once.
const MaxConcurrency = 8

// EntryCache is the subset of the persistent entry cache the pipeline uses.
type EntryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte) bool
}

// ProgressFunc receives the number of names processed so far.
type ProgressFunc func(completed int)

// CardSetService resolves deck-list names into set groups.
type CardSetService interface {
	// FetchCardSets resolves every name and returns the grouped result.
	// Failures are isolated per name; onProgress, when non-nil, is called
	// exactly once per name with a strictly increasing count.
	FetchCardSets(ctx context.Context, names []string, onProgress ProgressFunc) domain.ResultCollection
}

// Config tunes the pipeline.
type Config struct {
	// Concurrency is the number of names resolved at once. 1 is strictly sequential.
	Concurrency int
	Policy      Policy
}

// cardSetServiceImpl implements the CardSetService interface
type cardSetServiceImpl struct {
	cache    EntryCache
	searcher scryfall.Searcher
	config   Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewCardSetService creates a new CardSetService.
// It returns an error if any of the required dependencies are nil.
func NewCardSetService(
	cache EntryCache,
	searcher scryfall.Searcher,
	cfg Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) (CardSetService, error) {
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if searcher == nil {
		return nil, domain.NewValidationError("searcher", "cannot be nil", domain.ErrValidation)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Concurrency > MaxConcurrency {
		cfg.Concurrency = MaxConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardSetServiceImpl{
		cache:    cache,
		searcher: searcher,
		config:   cfg,
		logger:   logger.With(slog.String("component", "card_set_service")),
		metrics:  m,
	}, nil
}

// resolution is the outcome of looking up one name.
type resolution struct {
	resp  *scryfall.SearchResponse
	body  []byte
	fresh bool
	err   error
}

// FetchCardSets implements CardSetService.FetchCardSets
func (s *cardSetServiceImpl) FetchCardSets(
	ctx context.Context,
	names []string,
	onProgress ProgressFunc,
) domain.ResultCollection {
	batchID := uuid.New()
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("batch_id", batchID.String()))
	ctx = logger.WithLogger(ctx, log)
	start := time.Now()

	groups := aggregate.NewGroups()
	if s.config.Concurrency == 1 || len(names) < 2 {
		s.fetchSequential(ctx, names, groups, onProgress)
	} else {
		s.fetchConcurrent(ctx, names, groups, onProgress)
	}

	result := groups.Collection()
	log.Info("resolved card names",
		slog.Int("names", len(names)),
		slog.Int("sets", len(result)),
		slog.Int("cards", result.CardCount()),
		slog.Duration("duration", time.Since(start)))
	return result
}

func (s *cardSetServiceImpl) fetchSequential(
	ctx context.Context,
	names []string,
	groups *aggregate.Groups,
	onProgress ProgressFunc,
) {
	for i, name := range names {
		r := s.resolve(ctx, name)
		s.apply(ctx, name, r, groups, true)
		if onProgress != nil {
			onProgress(i + 1)
		}
	}
}

// fetchConcurrent resolves names on a bounded worker pool. Responses are
// buffered by index and normalized in input order afterwards, so grouping
// matches the sequential run exactly.
func (s *cardSetServiceImpl) fetchConcurrent(
	ctx context.Context,
	names []string,
	groups *aggregate.Groups,
	onProgress ProgressFunc,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	results := make([]resolution, len(names))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if onProgress != nil {
			onProgress(completed)
		}
	}

	queue := task.NewTaskQueue(len(names), log)
	for i, name := range names {
		i, name := i, name
		err := queue.Enqueue(task.NewFuncTask(task.TaskTypeResolveCard, func(ctx context.Context) error {
			defer report()
			r := s.resolve(ctx, name)
			if r.err == nil && r.fresh {
				s.store(ctx, name, r.body)
				r.fresh = false
			}
			results[i] = r
			return r.err
		}))
		if err != nil {
			// The queue is sized to hold every name.
			results[i] = resolution{err: fmt.Errorf("enqueue %q: %w", name, err)}
			report()
		}
	}
	queue.Close()

	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: s.config.Concurrency}, log)
	// Failures are logged when results are applied.
	pool.SetErrorHandler(func(task.Task, error) {})
	pool.Start(ctx)
	pool.Wait()

	for i, name := range names {
		s.apply(ctx, name, results[i], groups, false)
	}
}

// resolve looks name up in the cache, then in the card-data service.
func (s *cardSetServiceImpl) resolve(ctx context.Context, name string) (r resolution) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	defer func() {
		if p := recover(); p != nil {
			r = resolution{err: fmt.Errorf("panic resolving %q: %v", name, p)}
		}
	}()

	key := cardcache.Key(name)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if scryfall.IsList(cached) {
			resp, err := scryfall.Decode(cached)
			if err == nil {
				log.Debug("using cached data", slog.String("card", name))
				return resolution{resp: resp}
			}
		}
		log.Debug("ignoring unusable cached data",
			slog.String("card", name),
			slog.String("reason", ErrCachedPayloadInvalid.Error()))
	}

	log.Debug("fetching fresh data", slog.String("card", name))
	body, err := s.searcher.SearchPrints(ctx, name)
	if err != nil {
		return resolution{err: err}
	}
	resp, err := scryfall.Decode(body)
	if err != nil {
		return resolution{err: err}
	}
	return resolution{resp: resp, body: body, fresh: true}
}

// apply normalizes a successful resolution into groups and records the outcome.
// When cacheFresh is set, freshly fetched bodies are cached after normalization.
func (s *cardSetServiceImpl) apply(
	ctx context.Context,
	name string,
	r resolution,
	groups *aggregate.Groups,
	cacheFresh bool,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if r.err != nil {
		log.Error("failed to resolve card",
			slog.String("card", name),
			slog.String("error", r.err.Error()))
		s.metrics.NameResolved(metrics.OutcomeFailed)
		return
	}

	added := Normalize(r.resp, groups, s.config.Policy, log)
	log.Debug("normalized card prints",
		slog.String("card", name),
		slog.Int("prints", len(r.resp.Data)),
		slog.Int("added", added))

	if r.body == nil {
		s.metrics.NameResolved(metrics.OutcomeCacheHit)
		return
	}
	s.metrics.NameResolved(metrics.OutcomeFetched)
	if cacheFresh && r.fresh {
		s.store(ctx, name, r.body)
	}
}

func (s *cardSetServiceImpl) store(ctx context.Context, name string, body []byte) {
	if !s.cache.Set(ctx, cardcache.Key(name), body) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("unable to cache card data; results still processed",
			slog.String("card", name))
	}
}
