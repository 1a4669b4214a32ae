// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"tasksync/internal/engine"
	"tasksync/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found).
	UserError = 1

	// AuthError indicates a missing or expired session, or a config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// For classifies an error returned by a command. Anything that is not an
// auth, validation or lookup failure is a backend error.
func For(err error) int {
	var verr *engine.ValidationError
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrAuthExpired):
		return AuthError
	case errors.As(err, &verr), errors.Is(err, service.ErrNotFound):
		return UserError
	}
	return BackendError
}
