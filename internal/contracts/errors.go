package contracts

import (
	"errors"
	"fmt"
)

// The pipeline error taxonomy. Task-level failures abort the whole run;
// a backtest failure is reported but never invalidates a consensus that
// already exists.

// ErrDataUnavailable marks an external fetch failure with no usable
// snapshot to fall back to.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrInvalidInput marks a rejected invocation (malformed or too-recent
// as-of date). Nothing runs after this is returned.
var ErrInvalidInput = errors.New("invalid input")

// SchemaViolationError marks malformed structured output from the
// reasoning capability: mismatched array lengths, missing tickers, or a
// decision outside BUY/HOLD/SELL. Not locally recoverable.
type SchemaViolationError struct {
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return "schema violation: " + e.Reason
}

// NewSchemaViolation builds a SchemaViolationError with a formatted reason.
func NewSchemaViolation(format string, args ...interface{}) error {
	return &SchemaViolationError{Reason: fmt.Sprintf(format, args...)}
}

// IsSchemaViolation reports whether err is (or wraps) a SchemaViolationError.
func IsSchemaViolation(err error) bool {
	var sv *SchemaViolationError
	return errors.As(err, &sv)
}
