package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tasksync/internal/engine"
	"tasksync/internal/service"
)

// TaskRef represents a parsed task reference: either a 1-based row of the
// loaded list or a backend id.
type TaskRef struct {
	Row  int
	ID   service.ID
	ByID bool

	text string
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses the task reference in args[0].
//
// Parsing rules:
//  1. All digits → row number in the listing
//  2. #<id> → task id; numeric ids are compared as numbers, and a task
//     whose id is the same text in the other JSON kind also matches
//  3. Otherwise → error: invalid task reference: <ref>
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	arg := strings.TrimSpace(args[0])

	if isAllDigits(arg) {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Row: n}, nil
	}

	if rest, found := strings.CutPrefix(arg, "#"); found && rest != "" {
		id := service.StringID(rest)
		if _, err := strconv.ParseFloat(rest, 64); err == nil {
			id = service.NumberID(rest)
		}
		return TaskRef{ID: id, ByID: true, text: rest}, nil
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
}

// String renders the reference the way it was typed.
func (r TaskRef) String() string {
	if r.ByID {
		return "#" + r.ID.String()
	}
	return strconv.Itoa(r.Row)
}

// Resolve finds the referenced task in the engine's list.
func (r TaskRef) Resolve(eng *engine.Engine) (service.Task, error) {
	if r.ByID {
		if t, ok := eng.Find(r.ID); ok {
			return t, nil
		}
		if t, ok := r.matchText(eng.Tasks()); ok {
			return t, nil
		}
		return service.Task{}, fmt.Errorf("task %s: %w", r, service.ErrNotFound)
	}
	if t, ok := eng.At(r.Row); ok {
		return t, nil
	}
	return service.Task{}, fmt.Errorf("task number out of range: %d: %w", r.Row, service.ErrNotFound)
}

// matchText finds a task whose id has the reference's text regardless of
// whether the backend sent it as a string or a number.
func (r TaskRef) matchText(tasks []service.Task) (service.Task, bool) {
	text := r.text
	if text == "" {
		text = r.ID.String()
	}
	for _, t := range tasks {
		if t.ID.String() == text {
			return t, true
		}
		if r.ID.IsNumeric() && !t.ID.IsNumeric() && service.NumberID(t.ID.String()).Equal(r.ID) {
			return t, true
		}
	}
	return service.Task{}, false
}

// loadRef loads the list and resolves the reference in args.
func loadRef(ctx context.Context, eng *engine.Engine, args []string) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, &engine.ValidationError{Field: "task reference", Message: refMessage(err)}
	}
	if err := eng.Load(ctx); err != nil {
		return service.Task{}, err
	}
	return ref.Resolve(eng)
}

func refMessage(err error) string {
	if errors.Is(err, ErrTaskRefRequired) {
		return "required"
	}
	return "invalid: " + strings.TrimPrefix(err.Error(), "invalid task reference: ")
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
