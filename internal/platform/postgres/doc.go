// Package postgres provides the PostgreSQL implementation of store.EntryStore.
// It owns the cache_entries schema (applied with goose from embedded
// migrations) and maps pgx errors, including resource exhaustion, onto the
// store package's sentinel errors.
package postgres
