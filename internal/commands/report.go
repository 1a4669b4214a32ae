package commands

import (
	"errors"
	"fmt"
	"io"

	"tasksync/internal/engine"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// report prints err and returns its exit code. Authorization failures have
// already been announced by the navigator and are not printed again.
func report(errOut io.Writer, err error) int {
	var verr *engine.ValidationError
	switch {
	case session.IsAuthExpired(err):
	case errors.As(err, &verr):
		fmt.Fprintf(errOut, "error: %s\n", verr)
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
	case errors.Is(err, engine.ErrViewClosed):
		fmt.Fprintln(errOut, "error: cancelled")
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	}
	return exitcode.For(err)
}

// ok acknowledges a mutation unless quiet.
func ok(env *Env, out io.Writer) int {
	if !env.Cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
