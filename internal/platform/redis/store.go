// Package redis provides a Redis-backed store.EntryStore for deployments
// where several server instances share one response cache.
//
// Each entry is a hash under "<prefix>entry:<key>" holding the timestamp in
// epoch milliseconds, the payload and its accounted size. A sorted set scored
// by timestamp indexes entries by age, and a counter tracks accounted bytes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/setgrouper/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "setgrouper:"

const maxWatchAttempts = 3

// Store implements store.EntryStore on Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string
	quota  store.Quota
	logger *slog.Logger
}

var _ store.EntryStore = (*Store)(nil)

// NewStore wraps an existing client.
func NewStore(client goredis.UniversalClient, quota store.Quota, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		prefix: DefaultPrefix,
		quota:  quota,
		logger: logger.With(slog.String("component", "redis_entry_store")),
	}
}

// Open connects to the Redis server at addr and verifies the connection.
func Open(ctx context.Context, addr, password string, db int, quota store.Quota, logger *slog.Logger) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewStore(client, quota, logger), nil
}

func (s *Store) entryKey(key string) string { return s.prefix + "entry:" + key }
func (s *Store) indexKey() string { return s.prefix + "index" }
func (s *Store) bytesKey() string { return s.prefix + "bytes" }

// Get retrieves the entry stored under key.
func (s *Store) Get(ctx context.Context, key string) (*store.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.entryKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", mapError(err))
	}
	if len(fields) == 0 {
		return nil, store.ErrEntryNotFound
	}

	ms, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: bad timestamp %q", store.ErrCorruptEntry, key, fields["timestamp"])
	}
	return &store.Entry{
		Key:       key,
		Timestamp: time.UnixMilli(ms).UTC(),
		Data:      []byte(fields["data"]),
	}, nil
}

// Put writes entry under an optimistic WATCH on the entry and byte counter.
func (s *Store) Put(ctx context.Context, entry store.Entry) error {
	entryKey := s.entryKey(entry.Key)
	size := entry.Size()
	ms := entry.Timestamp.UTC().UnixMilli()

	txf := func(tx *goredis.Tx) error {
		existing, err := tx.HGet(ctx, entryKey, "size").Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if s.quota.MaxBytes > 0 {
			used, err := tx.Get(ctx, s.bytesKey()).Int64()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return err
			}
			if !s.quota.Allows(used, existing, size) {
				return fmt.Errorf("%w: %d of %d bytes used, entry needs %d",
					store.ErrQuotaExceeded, used, s.quota.MaxBytes, size)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, entryKey, "timestamp", ms, "data", entry.Data, "size", size)
			pipe.ZAdd(ctx, s.indexKey(), goredis.Z{Score: float64(ms), Member: entry.Key})
			pipe.IncrBy(ctx, s.bytesKey(), size-existing)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err = s.client.Watch(ctx, txf, entryKey, s.bytesKey())
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
		s.logger.Debug("retrying contended cache write", slog.String("key", entry.Key), slog.Int("attempt", attempt+1))
	}
	if err != nil {
		return mapError(err)
	}
	return nil
}

// Delete removes the entry for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	entryKey := s.entryKey(key)
	size, err := s.client.HGet(ctx, entryKey, "size").Int64()
	if errors.Is(err, goredis.Nil) {
		s.client.ZRem(ctx, s.indexKey(), key)
		return nil
	}
	if err != nil {
		return store.NewStoreError("cache_entry", "delete", "failed to read entry size", mapError(err))
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, entryKey)
		pipe.ZRem(ctx, s.indexKey(), key)
		pipe.DecrBy(ctx, s.bytesKey(), size)
		return nil
	})
	if err != nil {
		return store.NewStoreError("cache_entry", "delete", "failed to delete entry", mapError(err))
	}
	return nil
}

// Clear removes every entry written under the store's prefix.
func (s *Store) Clear(ctx context.Context) error {
	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return store.NewStoreError("cache_entry", "clear", "failed to read index", mapError(err))
	}

	keys := make([]string, 0, len(members)+2)
	for _, m := range members {
		keys = append(keys, s.entryKey(m))
	}
	keys = append(keys, s.indexKey(), s.bytesKey())

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return store.NewStoreError("cache_entry", "clear", "failed to delete entries", mapError(err))
	}
	return nil
}

// ListByAge returns entry metadata ordered oldest first. Redis orders equal
// scores lexicographically by member, which gives the key tie-break.
func (s *Store) ListByAge(ctx context.Context) ([]store.EntryMeta, error) {
	zs, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, store.NewStoreError("cache_entry", "list", "failed to read index", mapError(err))
	}
	if len(zs) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	sizes := make([]*goredis.StringCmd, len(zs))
	for i, z := range zs {
		sizes[i] = pipe.HGet(ctx, s.entryKey(z.Member.(string)), "size")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, store.NewStoreError("cache_entry", "list", "failed to read sizes", mapError(err))
	}

	metas := make([]store.EntryMeta, 0, len(zs))
	for i, z := range zs {
		size, err := sizes[i].Int64()
		if err != nil {
			// Index entry without a hash; skip it.
			continue
		}
		metas = append(metas, store.EntryMeta{
			Key:       z.Member.(string),
			Timestamp: time.UnixMilli(int64(z.Score)).UTC(),
			Size:      size,
		})
	}
	return metas, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// mapError translates a Redis out-of-memory rejection into store.ErrQuotaExceeded.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "OOM ") || strings.Contains(err.Error(), "maxmemory") {
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	}
	return err
}
