package engine

import (
	"errors"
	"fmt"

	"tasksync/internal/service"
)

// State is the lifecycle stage of a single mutation.
type State int

const (
	StateIdle State = iota
	// StateApplied: the optimistic change is visible locally, the remote
	// call is outstanding.
	StateApplied
	// StateConfirmed: the backend accepted the mutation and the local list
	// reflects its answer.
	StateConfirmed
	// StateRolledBack: the optimistic change was reverted.
	StateRolledBack
	// StateFailed: a confirm-first mutation was rejected; the list was not
	// touched.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateApplied:
		return "applied"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled-back"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Op names a mutation kind.
type Op string

const (
	OpLoad   Op = "load"
	OpToggle Op = "toggle"
	OpCreate Op = "create"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

// Transition is reported to the Observer on every state change.
type Transition struct {
	Op    Op
	ID    service.ID
	State State
	Err   error
}

// Observer receives transitions. It is called without the engine lock held.
type Observer func(Transition)

// ErrViewClosed is returned when a result arrives after the owning view was
// closed. The result is discarded.
var ErrViewClosed = errors.New("view closed")

// ValidationError is a local input problem detected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}
