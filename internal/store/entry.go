package store

import (
	"context"
	"time"
)

// Entry is one cached service response.
// Data is the opaque payload exactly as it was received.
type Entry struct {
	Key       string
	Timestamp time.Time
	Data      []byte
}

// Size returns the approximate storage footprint of the entry: the key plus
// its serialized value, where the value serialization is the timestamp in
// epoch milliseconds and the payload.
func (e Entry) Size() int64 {
	return int64(len(e.Key)) + serializedOverhead + int64(len(e.Data))
}

// serializedOverhead approximates the bytes spent on `{"timestamp":<ms>,"data":}`.
const serializedOverhead = 35

// EntryMeta describes an entry without its payload.
type EntryMeta struct {
	Key       string
	Timestamp time.Time
	Size      int64
}

// EntryStore is the durable key/value substrate behind the card cache.
// Version: 1.0
type EntryStore interface {
	// Get returns the entry for key.
	// Returns ErrEntryNotFound if the key is absent.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put writes the entry, replacing any prior entry for the same key
	// together with its timestamp.
	// Returns ErrQuotaExceeded when the substrate is out of space.
	Put(ctx context.Context, entry Entry) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// ListByAge returns metadata for every entry ordered by timestamp,
	// oldest first. Entries with equal timestamps are ordered by key.
	ListByAge(ctx context.Context) ([]EntryMeta, error)

	// Close releases the underlying resources.
	Close() error
}

// Quota is an optional byte budget shared by the substrates.
// A zero MaxBytes means unlimited.
type Quota struct {
	MaxBytes int64
}

// Allows reports whether writing an entry of size incoming, replacing an
// entry of size existing, keeps the total within budget.
func (q Quota) Allows(current, existing, incoming int64) bool {
	if q.MaxBytes <= 0 {
		return true
	}
	return current-existing+incoming <= q.MaxBytes
}
