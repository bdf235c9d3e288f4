package engine

import "fmt"

// ValidationError reports malformed caller input: blank text, an oversized
// batch, an out-of-range threshold or an unknown filter criterion. It is
// always recoverable locally and never yields a partial result.
type ValidationError struct {
	// Reason is a human-readable description of what was rejected.
	Reason string
	// Index is the zero-based position of the offending item for batch
	// input, or -1 when the error is not positional.
	Index int
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input at index %d: %s", e.Index, e.Reason)
	}
	return "invalid input: " + e.Reason
}

// NewValidationError creates a non-positional validation error.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason, Index: -1}
}

// ConfigurationError reports an invalid weight or threshold configuration.
// It is fatal at startup: an engine with an invalid configuration must
// never reach a ready state.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid scoring configuration: " + e.Reason
}
