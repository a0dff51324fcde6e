// Package store defines the persistence contract for cached card-data
// responses. The EntryStore interface abstracts the durable substrate
// (SQLite, PostgreSQL, Redis or memory) from the cache service, which owns
// expiration and eviction policy.
package store
