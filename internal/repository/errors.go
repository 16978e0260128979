// Package repository defines error types that are reused across multiple
// repositories. Not-found sentinels wrap apperror.ErrNotFound so that
// higher layers can test for absence with errors.Is without knowing
// which table was queried, while still being able to single out a
// specific resource when they need to.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
)

// ErrVoteNotFound is returned when a vote lookup, update or delete
// matches no row.
var ErrVoteNotFound = fmt.Errorf("vote %w", apperror.ErrNotFound)

// ErrMovieNotFound is returned when the movie whose rating is being
// written does not exist.
var ErrMovieNotFound = fmt.Errorf("movie %w", apperror.ErrNotFound)

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = fmt.Errorf("user %w", apperror.ErrNotFound)

// ErrEmailExists is returned by UserRepo.Create when the email is
// already registered. Handlers should translate this into an HTTP 409
// response.
var ErrEmailExists = errors.New("email already exists")
