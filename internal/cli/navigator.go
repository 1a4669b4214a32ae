package cli

import (
	"fmt"
	"io"
	"sync"

	"tasksync/internal/session"
)

// Navigator is the terminal's view of navigation. Being sent to login means
// the session ended, which is reported once per run; landing on the
// dashboard needs no output.
type Navigator struct {
	w    io.Writer
	once sync.Once
}

// NewNavigator creates a Navigator reporting to w.
func NewNavigator(w io.Writer) *Navigator {
	return &Navigator{w: w}
}

// Navigate implements session.Navigator.
func (n *Navigator) Navigate(route session.Route) {
	if route != session.RouteLogin {
		return
	}
	n.once.Do(func() {
		fmt.Fprintln(n.w, "error: session expired (run: tasksync login)")
	})
}
