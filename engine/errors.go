/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The tracker and API layers wrap these with additional context.

ERROR CATEGORIES:
  1. Validation errors - per-field, recoverable by resubmitting
  2. Ownership errors - hard rejection of the whole operation
  3. Not-found errors - stale references, distinct from bad input
  4. Conflict errors - duplicate links or activity IDs

USAGE:
  Callers branch with errors.As / errors.Is:

    var verrs engine.ValidationErrors
    if errors.As(err, &verrs) { ... render field list ... }
    if engine.IsNotFound(err) { ... 404 ... }

SEE ALSO:
  - tracker: produces these errors from write operations
  - api: maps them onto HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCredentialNotFound is returned when a referenced credential does
	// not exist or is not visible to the caller.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrActivityNotFound is returned when a referenced activity does not
	// exist or is not visible to the caller.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrLinkNotFound is returned when a credential-activity link does
	// not exist.
	ErrLinkNotFound = errors.New("activity link not found")

	// ErrForbidden is returned when a submitted credential reference does
	// not belong to the caller. The whole operation is rejected; nothing
	// is partially applied.
	ErrForbidden = errors.New("credential does not belong to caller")

	// ErrDuplicateLink is returned when an activity would be linked twice
	// to the same credential.
	ErrDuplicateLink = errors.New("activity already linked to credential")

	// ErrDuplicateActivityID is returned when a client-assigned activity
	// ID already exists.
	ErrDuplicateActivityID = errors.New("activity id already exists")

	// ErrRateLimited is returned when the injected rate limiter rejects
	// the caller's key.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// =============================================================================
// VALIDATION ERRORS - Per-field, never fatal
// =============================================================================

// FieldError reports a single malformed or out-of-range field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every field failure from one submission so
// the caller can fix them all in a single round trip.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a failure. Usable on the zero value.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// OrNil returns the collected errors as an error, or nil when empty.
func (e ValidationErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a stale reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound) ||
		errors.Is(err, ErrActivityNotFound) ||
		errors.Is(err, ErrLinkNotFound)
}

// IsClientError reports whether the error is due to invalid client input
// rather than a server-side failure.
func IsClientError(err error) bool {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	return IsNotFound(err) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrDuplicateLink) ||
		errors.Is(err, ErrDuplicateActivityID) ||
		errors.Is(err, ErrRateLimited)
}
