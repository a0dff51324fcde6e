// Package scryfall is a small client for the card-data search endpoint.
//
// The client returns the raw response body so callers can cache it verbatim.
// Requests pass through a token bucket limiter, and 429, 5xx and transport
// failures are retried with exponential backoff.
package scryfall
