// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts the deck-list parser, the resolution
// pipeline, the selection view and the cache maintenance operations to JSON
// endpoints.
package api
