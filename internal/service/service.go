// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
)

// ErrAuthExpired is returned by any backend call that failed because the
// current credential is missing, invalid or expired (HTTP 401).
var ErrAuthExpired = errors.New("authorization expired")

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("not found")

// Service defines the interface for task backend operations.
// Commands and the mutation engine never import a transport or SDK directly.
type Service interface {
	// ListTasks returns every task visible to the current credential,
	// in backend order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns it as confirmed by the backend.
	// Fields the backend omits are filled from the draft.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask replaces title and description of prev.
	// Fields the backend omits are filled from prev and the draft.
	UpdateTask(ctx context.Context, prev Task, draft Draft) (Task, error)

	// ToggleTask flips the done state of a task on the backend.
	ToggleTask(ctx context.Context, id ID) (ToggleResult, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id ID) error
}

// Authenticator performs the account calls that do not need a credential.
type Authenticator interface {
	// Login exchanges credentials for a bearer token. An empty token with a
	// nil error means the backend accepted the request without issuing one;
	// message then carries whatever the backend said.
	Login(ctx context.Context, creds Credentials) (token, message string, err error)

	// Signup registers a new account and returns the backend's message.
	Signup(ctx context.Context, creds Credentials) (message string, err error)
}
