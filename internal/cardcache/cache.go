// Package cardcache implements the persistent entry cache that fronts the
// card-data service. It owns the expiration and eviction policy on top of
// any store.EntryStore substrate.
package cardcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/platform/metrics"
	"github.com/phrazzld/setgrouper/internal/store"
)

const (
	// DefaultExpiration is the age at which an entry stops being served.
	DefaultExpiration = 96 * time.Hour

	// DefaultRetention is how many of the most recent entries survive a
	// quota-driven eviction.
	DefaultRetention = 50
)

// Stats summarizes the cache contents.
type Stats struct {
	Count       int        `json:"count"`
	ApproxBytes int64      `json:"approx_bytes"`
	Oldest      *time.Time `json:"oldest,omitempty"`
}

// Cache is the persistent entry cache.
type Cache struct {
	store      store.EntryStore
	now        func() time.Time
	expiration time.Duration
	retention  int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithExpiration sets the entry lifetime. Non-positive values are ignored.
func WithExpiration(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.expiration = d
		}
	}
}

// WithRetention sets how many entries an eviction keeps. Negative values are ignored.
func WithRetention(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.retention = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records cache activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a Cache over s.
func New(s store.EntryStore, opts ...Option) *Cache {
	c := &Cache{
		store:      s,
		now:        time.Now,
		expiration: DefaultExpiration,
		retention:  DefaultRetention,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "card_cache"))
	return c
}

// Get returns the payload stored under key. Missing, expired and unreadable
// entries are all reported as absent; an expired entry is deleted.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to read cache entry",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		c.metrics.CacheMiss()
		return nil, false
	}

	if c.now().Sub(entry.Timestamp) >= c.expiration {
		log.Debug("cache entry expired",
			slog.String("key", key),
			slog.Time("stored_at", entry.Timestamp))
		if err := c.store.Delete(ctx, key); err != nil {
			log.Warn("failed to delete expired cache entry",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		c.metrics.CacheMiss()
		return nil, false
	}

	c.metrics.CacheHit()
	return entry.Data, true
}

// Set stores payload under key with the current time. When the substrate
// reports storage pressure the oldest entries beyond the retention count are
// evicted and the write is retried once. It reports whether the entry was stored.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) bool {
	log := logger.FromContextOrDefault(ctx, c.logger)
	entry := store.Entry{Key: key, Timestamp: c.now(), Data: payload}

	err := c.store.Put(ctx, entry)
	if err == nil {
		c.metrics.CacheWrite()
		return true
	}

	if !errors.Is(err, store.ErrQuotaExceeded) {
		log.Warn("failed to write cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		c.metrics.CacheWriteFailure()
		return false
	}

	evicted := c.EvictOldest(ctx, c.retention)
	log.Info("cache quota exceeded, evicted oldest entries",
		slog.String("key", key),
		slog.Int("evicted", evicted),
		slog.Int("kept", c.retention))

	if err := c.store.Put(ctx, entry); err != nil {
		log.Warn("failed to write cache entry after eviction",
			slog.String("key", key),
			slog.String("error", err.Error()))
		c.metrics.CacheWriteFailure()
		return false
	}
	c.metrics.CacheWrite()
	return true
}

// Remove deletes the entry under key. Failures are logged only.
func (c *Cache) Remove(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to remove cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// Clear deletes every entry. Failures are logged only.
func (c *Cache) Clear(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to clear cache",
			slog.String("error", err.Error()))
	}
}

// EvictOldest removes the oldest entries until at most keep remain and
// returns how many were removed. Ranking is purely by timestamp.
func (c *Cache) EvictOldest(ctx context.Context, keep int) int {
	log := logger.FromContextOrDefault(ctx, c.logger)
	if keep < 0 {
		keep = 0
	}

	metas, err := c.store.ListByAge(ctx)
	if err != nil {
		log.Error("failed to list cache entries for eviction", slog.String("error", err.Error()))
		return 0
	}
	if len(metas) <= keep {
		return 0
	}

	removed := 0
	for _, m := range metas[:len(metas)-keep] {
		if err := c.store.Delete(ctx, m.Key); err != nil {
			log.Warn("failed to evict cache entry",
				slog.String("key", m.Key),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	c.metrics.CacheEvicted(removed)
	return removed
}

// Stats reports the entry count, approximate footprint and oldest timestamp.
func (c *Cache) Stats(ctx context.Context) Stats {
	metas, err := c.store.ListByAge(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("failed to list cache entries for stats",
			slog.String("error", err.Error()))
		return Stats{}
	}

	stats := Stats{Count: len(metas)}
	for _, m := range metas {
		stats.ApproxBytes += m.Size
	}
	if len(metas) > 0 {
		oldest := metas[0].Timestamp
		stats.Oldest = &oldest
	}
	return stats
}

// Keys lists the cached keys, oldest first.
func (c *Cache) Keys(ctx context.Context) []string {
	metas, err := c.store.ListByAge(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("failed to list cache keys",
			slog.String("error", err.Error()))
		return nil
	}
	keys := make([]string, len(metas))
	for i, m := range metas {
		keys[i] = m.Key
	}
	return keys
}

// Key returns the cache key for a card name.
func Key(name string) string {
	return "card_" + name
}
