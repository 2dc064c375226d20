package services

import (
	"errors"
	"fmt"
)

// ErrAlreadySolved is the idempotent-rejection outcome for a duplicate
// first-solve submission. The existing entry is never altered, even when the
// new solve time would be better.
var ErrAlreadySolved = errors.New("already solved")

// ErrConcurrencyConflict is returned once the bounded transactional retries
// are exhausted. No state was changed and the caller may safely retry.
var ErrConcurrencyConflict = errors.New("concurrency conflict, retry")

// ValidationError rejects malformed client input before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
