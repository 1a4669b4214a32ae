package transport

import (
	"errors"
	"fmt"

	"tasksync/internal/normalize"
)

// ErrTransport matches every non-authorization failure: network errors and
// non-success statuses.
var ErrTransport = errors.New("transport failure")

// ErrBothFailed matches a request that failed on the primary endpoint and
// then on the same-origin fallback. There is no further fallback.
var ErrBothFailed = errors.New("primary and fallback transports failed")

// ErrNoEndpoint is returned when no endpoint is configured for a request.
var ErrNoEndpoint = errors.New("no endpoint configured")

// StatusError is a completed request with a non-success status other than 401.
type StatusError struct {
	Endpoint string
	Method   string
	Path     string
	Status   int
	Body     []byte
}

func (e *StatusError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Message returns the server's message from the response body, if any.
func (e *StatusError) Message() string {
	return normalize.Message(normalize.Decode(e.Body))
}

func (e *StatusError) Is(target error) bool { return target == ErrTransport }

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Endpoint string
	Method   string
	Path     string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Method, e.Path, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrTransport }

// FallbackError carries both failures of a request that fell back.
type FallbackError struct {
	Primary  error
	Fallback error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("primary: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *FallbackError) Unwrap() []error { return []error{e.Primary, e.Fallback} }

func (e *FallbackError) Is(target error) bool { return target == ErrBothFailed }
