package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("entity not found")

	// ErrEntryNotFound is the cache-entry flavour of ErrNotFound.
	ErrEntryNotFound = fmt.Errorf("%w: cache entry", ErrNotFound)

	// ErrQuotaExceeded covers both the configured byte budget and a
	// substrate that reports it is out of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrCorruptEntry means a stored entry could not be decoded.
	ErrCorruptEntry = errors.New("corrupt entry")

	// ErrInvalidEntity means the substrate rejected a row on a constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrTransactionFailed = errors.New("transaction failed")
)

func IsNotFoundError(err error) bool { return errors.Is(err, ErrNotFound) }

// IsQuotaError reports storage pressure, which the card cache answers by
// evicting old entries and retrying.
func IsQuotaError(err error) bool { return errors.Is(err, ErrQuotaExceeded) }

// StoreError records which operation on which entity failed.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
