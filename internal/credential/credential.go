// Package credential holds the session's bearer token.
//
// A Holder is created once per process and passed explicitly to every
// component that issues authenticated calls.
package credential

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Store persists the token between process runs.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Remove() error
}

// Holder stores at most one bearer token.
type Holder struct {
	mu    sync.RWMutex
	token string
	store Store
}

// NewHolder creates an empty holder. store may be nil for a memory-only
// session.
func NewHolder(store Store) *Holder {
	return &Holder{store: store}
}

// Load reads the persisted token, if any.
func (h *Holder) Load() error {
	if h.store == nil {
		return nil
	}
	token, err := h.store.Load()
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
	return nil
}

// Token returns the current credential as an OAuth2 bearer token.
// ok is false when no credential is present.
func (h *Holder) Token() (tok *oauth2.Token, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" {
		return nil, false
	}
	return &oauth2.Token{AccessToken: h.token, TokenType: "Bearer"}, true
}

// Raw returns the token string, or "" when absent.
func (h *Holder) Raw() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Present reports whether a credential is held.
func (h *Holder) Present() bool {
	return h.Raw() != ""
}

// Set replaces the credential and persists it.
func (h *Holder) Set(token string) error {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
	if h.store == nil {
		return nil
	}
	return h.store.Save(token)
}

// Clear drops the credential. The in-memory token is always cleared, even
// when removing the persisted copy fails.
func (h *Holder) Clear() error {
	h.mu.Lock()
	h.token = ""
	h.mu.Unlock()
	if h.store == nil {
		return nil
	}
	return h.store.Remove()
}

// Expired reports whether the held token is a JWT whose exp claim is before
// now. Opaque tokens never expire locally; the backend decides.
func (h *Holder) Expired(now time.Time) bool {
	raw := h.Raw()
	if raw == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
