package quotes

import (
	"errors"
	"fmt"
)

// ErrNoData marks a definitive empty response for a date (weekend or
// holiday). It is recorded as a skip, never retried.
var ErrNoData = errors.New("no data published for date")

// TransientError wraps a failure that is worth retrying: network
// errors, timeouts, and non-success HTTP statuses.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// SchemaViolationError is returned by the store when a write's field
// set or tag does not match the category schema. Fatal to the single
// write, not to the run.
type SchemaViolationError struct {
	Category Category
	Reason   string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation for %s: %s", e.Category, e.Reason)
}

// PayloadError marks a fetched payload that could not be parsed into
// any category. The date is recorded as failed.
type PayloadError struct {
	Date   string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload for %s unusable: %s", e.Date, e.Reason)
}
