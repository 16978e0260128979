// Package apperror defines the error taxonomy shared by the analytics
// engine, the rating maintainer and the HTTP layer. Handlers translate
// these values into status codes; everything else is reported as a
// generic failure.
package apperror

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an absent vote, movie or show. Repositories wrap it
// so callers can test with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError rejects input before any query executes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotEligibleError is returned when a user without a confirmed booking
// for the movie tries to vote on it.
type NotEligibleError struct {
	UserID  uint64
	MovieID uint64
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("user %d needs a confirmed booking for movie %d before voting", e.UserID, e.MovieID)
}

// DerivedWriteFailure describes a rating recompute that could not be
// persisted. It is logged and published, never returned to the caller
// of the vote mutation.
type DerivedWriteFailure struct {
	MovieID uint64
	Err     error
}

func (e *DerivedWriteFailure) Error() string {
	return fmt.Sprintf("recompute rating for movie %d: %v", e.MovieID, e.Err)
}

func (e *DerivedWriteFailure) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotEligible reports whether err carries a NotEligibleError.
func IsNotEligible(err error) bool {
	var n *NotEligibleError
	return errors.As(err, &n)
}
