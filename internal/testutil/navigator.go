package testutil

import (
	"sync"

	"tasksync/internal/session"
)

// RecordingNavigator records every navigation.
type RecordingNavigator struct {
	mu     sync.Mutex
	routes []session.Route
}

// Navigate implements session.Navigator.
func (n *RecordingNavigator) Navigate(route session.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

// Routes returns the navigations so far.
func (n *RecordingNavigator) Routes() []session.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]session.Route, len(n.routes))
	copy(out, n.routes)
	return out
}
