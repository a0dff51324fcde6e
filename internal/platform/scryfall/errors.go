package scryfall

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the search matched no cards (HTTP 404).
	ErrNotFound = errors.New("no cards found")

	// ErrBadStatus is returned for non-2xx responses that are not retried.
	ErrBadStatus = errors.New("unexpected response status")

	// ErrTransient is returned when a retryable failure persisted through every retry.
	ErrTransient = errors.New("transient card-data service failure")

	// ErrInvalidResponse is returned when a 2xx body is not a search result list.
	ErrInvalidResponse = errors.New("invalid card-data response")
)

// StatusError records the HTTP status of a failed request.
type StatusError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s: %v", e.StatusCode, e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
