// Package memory provides a process-local store.EntryStore, used for tests
// and for runs where no durable cache is wanted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/phrazzld/setgrouper/internal/store"
)

// Store keeps entries in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]store.Entry
	used    int64
	quota   store.Quota
}

var _ store.EntryStore = (*Store)(nil)

// NewStore creates an empty in-memory store with an optional byte quota.
func NewStore(quota store.Quota) *Store {
	return &Store{
		entries: make(map[string]store.Entry),
		quota:   quota,
	}
}

// Get returns a copy of the entry for key.
func (s *Store) Get(_ context.Context, key string) (*store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, store.ErrEntryNotFound
	}
	e.Data = append([]byte(nil), e.Data...)
	return &e, nil
}

// Put stores a copy of entry.
func (s *Store) Put(_ context.Context, entry store.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing int64
	if prev, ok := s.entries[entry.Key]; ok {
		existing = prev.Size()
	}
	size := entry.Size()
	if !s.quota.Allows(s.used, existing, size) {
		return fmt.Errorf("%w: %d of %d bytes used, entry needs %d",
			store.ErrQuotaExceeded, s.used, s.quota.MaxBytes, size)
	}

	entry.Data = append([]byte(nil), entry.Data...)
	s.entries[entry.Key] = entry
	s.used += size - existing
	return nil
}

// Delete removes the entry for key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[key]; ok {
		s.used -= prev.Size()
		delete(s.entries, key)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]store.Entry)
	s.used = 0
	return nil
}

// ListByAge returns entry metadata ordered oldest first, ties broken by key.
func (s *Store) ListByAge(_ context.Context) ([]store.EntryMeta, error) {
	s.mu.RLock()
	metas := make([]store.EntryMeta, 0, len(s.entries))
	for _, e := range s.entries {
		metas = append(metas, store.EntryMeta{Key: e.Key, Timestamp: e.Timestamp, Size: e.Size()})
	}
	s.mu.RUnlock()

	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].Timestamp.Equal(metas[j].Timestamp) {
			return metas[i].Timestamp.Before(metas[j].Timestamp)
		}
		return metas[i].Key < metas[j].Key
	})
	return metas, nil
}

// UsedBytes reports the bytes currently accounted against the quota.
func (s *Store) UsedBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
