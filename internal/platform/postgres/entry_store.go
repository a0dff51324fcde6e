package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/store"
)

const (
	getEntryQuery = `SELECT stored_at, data FROM cache_entries WHERE key = $1`

	upsertEntryQuery = `
		INSERT INTO cache_entries (key, stored_at, data, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET stored_at = EXCLUDED.stored_at, data = EXCLUDED.data, size = EXCLUDED.size
	`

	usageQuery = `
		SELECT COALESCE(SUM(size), 0), COALESCE(SUM(size) FILTER (WHERE key = $1), 0)
		FROM cache_entries
	`

	deleteEntryQuery = `DELETE FROM cache_entries WHERE key = $1`

	clearEntriesQuery = `DELETE FROM cache_entries`

	listByAgeQuery = `SELECT key, stored_at, size FROM cache_entries ORDER BY stored_at ASC, key ASC`
)

// PostgresEntryStore implements store.EntryStore using PostgreSQL.
type PostgresEntryStore struct {
	db     *sql.DB
	quota  store.Quota
	logger *slog.Logger
}

var _ store.EntryStore = (*PostgresEntryStore)(nil)

// NewPostgresEntryStore creates a new PostgresEntryStore.
// A nil logger falls back to the slog default.
func NewPostgresEntryStore(db *sql.DB, quota store.Quota, logger *slog.Logger) *PostgresEntryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEntryStore{
		db:     db,
		quota:  quota,
		logger: logger.With(slog.String("component", "postgres_entry_store")),
	}
}

// Open connects to databaseURL through the pgx driver and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Get retrieves the entry stored under key.
func (s *PostgresEntryStore) Get(ctx context.Context, key string) (*store.Entry, error) {
	var (
		storedAt time.Time
		data     []byte
	)
	if err := s.db.QueryRowContext(ctx, getEntryQuery, key).Scan(&storedAt, &data); err != nil {
		mapped := MapError(err)
		if !store.IsNotFoundError(mapped) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to read cache entry",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, mapped
	}

	return &store.Entry{Key: key, Timestamp: storedAt.UTC(), Data: data}, nil
}

// Put upserts entry. When a quota is configured the usage check and the
// write share one transaction.
func (s *PostgresEntryStore) Put(ctx context.Context, entry store.Entry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.quota.MaxBytes <= 0 {
		if err := upsertEntry(ctx, s.db, entry); err != nil {
			log.Warn("failed to write cache entry",
				slog.String("key", entry.Key),
				slog.String("error", err.Error()))
			return err
		}
		return nil
	}

	return store.RunInTransaction(logger.WithLogger(ctx, log), s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.checkQuota(ctx, tx, entry); err != nil {
			return err
		}
		return upsertEntry(ctx, tx, entry)
	})
}

// checkQuota fails with store.ErrQuotaExceeded when writing entry would
// exceed the configured budget.
func (s *PostgresEntryStore) checkQuota(ctx context.Context, q store.DBTX, entry store.Entry) error {
	var total, existing int64
	if err := q.QueryRowContext(ctx, usageQuery, entry.Key).Scan(&total, &existing); err != nil {
		return MapError(err)
	}
	if size := entry.Size(); !s.quota.Allows(total, existing, size) {
		return fmt.Errorf("%w: %d of %d bytes used, entry needs %d",
			store.ErrQuotaExceeded, total, s.quota.MaxBytes, size)
	}
	return nil
}

func upsertEntry(ctx context.Context, q store.DBTX, entry store.Entry) error {
	if _, err := q.ExecContext(ctx, upsertEntryQuery,
		entry.Key, entry.Timestamp.UTC(), entry.Data, entry.Size()); err != nil {
		return MapError(err)
	}
	return nil
}

// Delete removes the entry for key.
func (s *PostgresEntryStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteEntryQuery, key); err != nil {
		return store.NewStoreError("cache_entry", "delete", "failed to delete entry", MapError(err))
	}
	return nil
}

// Clear removes every entry.
func (s *PostgresEntryStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, clearEntriesQuery); err != nil {
		return store.NewStoreError("cache_entry", "clear", "failed to clear entries", MapError(err))
	}
	return nil
}

// ListByAge returns entry metadata ordered oldest first.
func (s *PostgresEntryStore) ListByAge(ctx context.Context) ([]store.EntryMeta, error) {
	rows, err := s.db.QueryContext(ctx, listByAgeQuery)
	if err != nil {
		return nil, store.NewStoreError("cache_entry", "list", "failed to list entries", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var metas []store.EntryMeta
	for rows.Next() {
		var m store.EntryMeta
		if err := rows.Scan(&m.Key, &m.Timestamp, &m.Size); err != nil {
			return nil, store.NewStoreError("cache_entry", "list", "failed to scan entry", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("cache_entry", "list", "failed to iterate entries", err)
	}
	return metas, nil
}

// Close closes the underlying database handle.
func (s *PostgresEntryStore) Close() error {
	return s.db.Close()
}
