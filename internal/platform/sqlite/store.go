package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/store"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements store.EntryStore over a single SQLite file.
type Store struct {
	db     *sql.DB
	quota  store.Quota
	logger *slog.Logger
}

var _ store.EntryStore = (*Store)(nil)

// Open opens the SQLite file at path and applies bundled migrations.
func Open(ctx context.Context, path string, quota store.Quota, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps connection-scoped pragmas consistent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{
		db:     db,
		quota:  quota,
		logger: logger.With(slog.String("component", "sqlite_entry_store")),
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		s.logger.Debug("applied migration", slog.String("source", r.Source.Path))
	}
	return nil
}

// DB returns the raw database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Get retrieves the entry stored under key.
func (s *Store) Get(ctx context.Context, key string) (*store.Entry, error) {
	var (
		storedAt int64
		data     []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT stored_at, data FROM cache_entries WHERE key = ?`, key).Scan(&storedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrEntryNotFound
	}
	if err != nil {
		return nil, store.NewStoreError("cache_entry", "get", "failed to read entry", mapError(err))
	}
	return &store.Entry{Key: key, Timestamp: fromMillis(storedAt), Data: data}, nil
}

// Put upserts entry, enforcing the configured quota inside the write transaction.
func (s *Store) Put(ctx context.Context, entry store.Entry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(logger.WithLogger(ctx, log), s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.checkQuota(ctx, tx, entry); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cache_entries (key, stored_at, data, size) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET stored_at = excluded.stored_at, data = excluded.data, size = excluded.size`,
			entry.Key, toMillis(entry.Timestamp), entry.Data, entry.Size())
		return err
	})
	if err != nil {
		log.Debug("cache entry write failed", slog.String("key", entry.Key), slog.String("error", err.Error()))
		return mapError(err)
	}
	return nil
}

// checkQuota fails with store.ErrQuotaExceeded when writing entry would
// exceed the configured budget. Without a budget it does nothing.
func (s *Store) checkQuota(ctx context.Context, q store.DBTX, entry store.Entry) error {
	if s.quota.MaxBytes <= 0 {
		return nil
	}
	var total, existing int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(size), 0), COALESCE(SUM(CASE WHEN key = ? THEN size END), 0)
		FROM cache_entries`, entry.Key).Scan(&total, &existing)
	if err != nil {
		return err
	}
	if size := entry.Size(); !s.quota.Allows(total, existing, size) {
		return fmt.Errorf("%w: %d of %d bytes used, entry needs %d",
			store.ErrQuotaExceeded, total, s.quota.MaxBytes, size)
	}
	return nil
}

// Delete removes the entry for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return store.NewStoreError("cache_entry", "delete", "failed to delete entry", mapError(err))
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return store.NewStoreError("cache_entry", "clear", "failed to clear entries", mapError(err))
	}
	return nil
}

// ListByAge returns entry metadata ordered oldest first.
func (s *Store) ListByAge(ctx context.Context) ([]store.EntryMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, stored_at, size FROM cache_entries ORDER BY stored_at ASC, key ASC`)
	if err != nil {
		return nil, store.NewStoreError("cache_entry", "list", "failed to list entries", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var metas []store.EntryMeta
	for rows.Next() {
		var (
			m        store.EntryMeta
			storedAt int64
		)
		if err := rows.Scan(&m.Key, &storedAt, &m.Size); err != nil {
			return nil, store.NewStoreError("cache_entry", "list", "failed to scan entry", err)
		}
		m.Timestamp = fromMillis(storedAt)
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("cache_entry", "list", "failed to iterate entries", err)
	}
	return metas, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// mapError translates SQLite storage exhaustion into store.ErrQuotaExceeded.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isStorageFull(err) {
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	}
	return err
}

func isStorageFull(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_FULL
}
