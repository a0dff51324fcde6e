// Package sqlite provides the embedded, file-backed implementation of
// store.EntryStore. It is the default cache backend: a single database file
// that survives restarts without any external service.
package sqlite
