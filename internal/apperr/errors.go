// Package apperr defines the error taxonomy shared by the test-data
// lifecycle components. Handlers map these to HTTP responses with errors.As.
package apperr

import "fmt"

// ValidationError reports malformed or out-of-range input. Raised before any
// mutation; the caller can fix the input and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a named input field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// LimitExceededError reports a production safety ceiling hit. Nothing was
// written.
type LimitExceededError struct {
	Limit     string
	Max       int
	Requested int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded: requested %d, maximum %d (over by %d)",
		e.Limit, e.Requested, e.Max, e.Requested-e.Max)
}

// ConfirmationRequiredError reports a destructive operation attempted without
// the exact confirmation phrase or opt-in flag.
type ConfirmationRequiredError struct {
	Reason string
}

func (e *ConfirmationRequiredError) Error() string {
	return "confirmation required: " + e.Reason
}

// ReferentialIntegrityError reports an unexpected foreign key violation
// during the cascade. The enclosing transaction was rolled back; the schema
// needs investigation before a retry can succeed.
type ReferentialIntegrityError struct {
	Table string
	Err   error
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("referential integrity violation on %s: %v", e.Table, e.Err)
}

func (e *ReferentialIntegrityError) Unwrap() error { return e.Err }

// UpstreamError reports an unreachable identity provider or store.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
