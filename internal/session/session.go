// Package session implements the authorization-expiry policy shared by every
// remote call: clear the credential and send the user to login.
package session

import (
	"errors"
	"log/slog"
	"time"

	"tasksync/internal/credential"
	"tasksync/internal/logging"
	"tasksync/internal/service"
)

// Route is a navigation target.
type Route string

const (
	// RouteLogin is the login entry point.
	RouteLogin Route = "/auth/login"

	// RouteDashboard is where a successful login lands.
	RouteDashboard Route = "/dashboard"
)

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(route Route) { f(route) }

// Handler applies the expiry policy.
type Handler struct {
	creds  *credential.Holder
	nav    Navigator
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a Handler. logger may be nil.
func NewHandler(creds *credential.Holder, nav Navigator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		creds:  creds,
		nav:    nav,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// IsAuthExpired reports whether err is an authorization failure.
func IsAuthExpired(err error) bool {
	return errors.Is(err, service.ErrAuthExpired)
}

// Handle inspects a failure from any remote call. For an authorization
// failure it clears the credential, navigates to login and returns true; the
// caller must then stop reconciling that failure. Any other error is left to
// the caller and Handle returns false.
func (h *Handler) Handle(err error) bool {
	if !IsAuthExpired(err) {
		return false
	}
	if clearErr := h.creds.Clear(); clearErr != nil {
		h.logger.Error("failed to remove stored token", "error", clearErr)
	}
	h.logger.Info("session expired", "error", err)
	h.nav.Navigate(RouteLogin)
	return true
}

// Logout clears the credential and navigates to login.
func (h *Handler) Logout() error {
	err := h.creds.Clear()
	h.nav.Navigate(RouteLogin)
	return err
}

// Guard is called before a view that needs authentication is shown. When no
// credential is held, or the held JWT has expired, it navigates to login and
// returns false.
func (h *Handler) Guard() bool {
	if !h.creds.Present() {
		h.nav.Navigate(RouteLogin)
		return false
	}
	if h.creds.Expired(h.now()) {
		if err := h.creds.Clear(); err != nil {
			h.logger.Error("failed to remove stored token", "error", err)
		}
		h.nav.Navigate(RouteLogin)
		return false
	}
	return true
}
