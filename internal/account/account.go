// Package account implements the login, signup and logout flows.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tasksync/internal/credential"
	"tasksync/internal/engine"
	"tasksync/internal/logging"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/transport"
)

// Messages shown when the backend does not supply one.
const (
	MsgLoggedIn     = "Logged in successfully"
	MsgLoginDefault = "Login successful"
	MsgLoginFailed  = "Login failed"
	MsgSignedUp     = "Account created Successfully"
	MsgSignupFailed = "Signup failed"
	MsgLoggedOut    = "Logged out"
)

// Result is the outcome of a login or signup shown to the user.
type Result struct {
	Message string
	// LoggedIn is set when a token was issued and stored.
	LoggedIn bool
}

// Flows ties an Authenticator to the credential holder and navigation.
type Flows struct {
	auth   service.Authenticator
	creds  *credential.Holder
	nav    session.Navigator
	sess   *session.Handler
	logger *slog.Logger
}

// New creates Flows. logger may be nil.
func New(auth service.Authenticator, creds *credential.Holder, nav session.Navigator, logger *slog.Logger) *Flows {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Flows{
		auth:   auth,
		creds:  creds,
		nav:    nav,
		sess:   session.NewHandler(creds, nav, logger),
		logger: logger.With("component", "account"),
	}
}

func validate(c service.Credentials) error {
	if strings.TrimSpace(c.Username) == "" {
		return &engine.ValidationError{Field: "username", Message: "required"}
	}
	if c.Password == "" {
		return &engine.ValidationError{Field: "password", Message: "required"}
	}
	return nil
}

// failureMessage prefers the server's message over fallback.
func failureMessage(err error, fallback string) string {
	var se *transport.StatusError
	if errors.As(err, &se) {
		if msg := se.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Login exchanges credentials for a token. When one is issued it is stored
// and the user is sent to the dashboard. A response without a token is not
// an error; its message is reported instead.
func (f *Flows) Login(ctx context.Context, c service.Credentials) (Result, error) {
	if err := validate(c); err != nil {
		return Result{}, err
	}
	token, message, err := f.auth.Login(ctx, c)
	if err != nil {
		f.logger.Debug("login failed", "username", c.Username, "error", err)
		return Result{Message: failureMessage(err, MsgLoginFailed)}, err
	}
	if token == "" {
		if message == "" {
			message = MsgLoginDefault
		}
		return Result{Message: message}, nil
	}
	if err := f.creds.Set(token); err != nil {
		return Result{Message: MsgLoginFailed}, err
	}
	f.logger.Debug("logged in", "username", c.Username, "token", logging.MaskToken(token))
	f.nav.Navigate(session.RouteDashboard)
	return Result{Message: MsgLoggedIn, LoggedIn: true}, nil
}

// Signup registers an account. confirm must repeat the password.
func (f *Flows) Signup(ctx context.Context, c service.Credentials, confirm string) (Result, error) {
	if err := validate(c); err != nil {
		return Result{}, err
	}
	if confirm != c.Password {
		return Result{}, &engine.ValidationError{Field: "confirm password", Message: "does not match"}
	}
	if _, err := f.auth.Signup(ctx, c); err != nil {
		return Result{Message: failureMessage(err, MsgSignupFailed)}, err
	}
	return Result{Message: MsgSignedUp}, nil
}

// Logout removes the credential and returns to the login view.
func (f *Flows) Logout() (Result, error) {
	if err := f.sess.Logout(); err != nil {
		return Result{}, err
	}
	return Result{Message: MsgLoggedOut}, nil
}
