package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is to check for specific conditions.
var (
	// ErrCachedPayloadInvalid indicates a cached entry was present but not a
	// usable search result list; the name is fetched again.
	ErrCachedPayloadInvalid = errors.New("cached payload is not a result list")

	// ErrNoNames indicates the request resolved to an empty name list.
	ErrNoNames = errors.New("no card names to resolve")
)
