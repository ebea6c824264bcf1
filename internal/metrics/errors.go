package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey is returned when an identifier does not name an indicator.
	ErrUnknownKey = errors.New("unknown metric key")

	// ErrInvalidPattern is returned when a pattern override cannot be compiled
	// or has no capture group for the value.
	ErrInvalidPattern = errors.New("invalid metric pattern")

	// ErrNoMetrics is returned by callers that require at least one indicator.
	ErrNoMetrics = errors.New("no metric found in the document")
)

// PatternError reports a faulty pattern override.
type PatternError struct {
	Key     Key
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("metrics: pattern for %s (%q): %v", e.Key, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
