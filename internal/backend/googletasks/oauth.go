package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"tasksync/internal/config"
)

const (
	callbackPath     = "/callback"
	callbackTimeout  = 5 * time.Minute
	exchangeTimeout  = 30 * time.Second
	refreshTimeout   = 10 * time.Second
	callbackBasePort = 8085
	callbackPorts    = 5
)

var (
	// ErrNoOAuthClient is returned when oauth_client.json is missing.
	ErrNoOAuthClient = errors.New("oauth_client.json not found")

	errStateMismatch = errors.New("oauth callback state mismatch")
)

// AlreadyLoggedIn reports whether the stored Google token can still be
// refreshed.
func AlreadyLoggedIn(cfg *config.Config) bool {
	token, err := readToken(cfg.GoogleTokenPath())
	if err != nil || token.RefreshToken == "" {
		return false
	}
	oauthConfig, err := loadOAuthConfig(cfg)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	_, err = oauthConfig.TokenSource(ctx, token).Token()
	return err == nil
}

// Login runs the browser consent flow on a loopback port and stores the
// resulting token next to the settings file. The consent URL is written to
// prompt.
func Login(ctx context.Context, cfg *config.Config, prompt io.Writer) error {
	if !cfg.HasOAuthClient() {
		return fmt.Errorf("%w in %s", ErrNoOAuthClient, cfg.Dir)
	}
	oauthConfig, err := loadOAuthConfig(cfg)
	if err != nil {
		return err
	}

	ln, err := listenLoopback()
	if err != nil {
		return err
	}
	token, err := authorize(ctx, oauthConfig, ln, prompt)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeToken(cfg.GoogleTokenPath(), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Logout removes the stored Google token. A missing token is not an error.
func Logout(cfg *config.Config) error {
	err := os.Remove(cfg.GoogleTokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func listenLoopback() (net.Listener, error) {
	for port := callbackBasePort; port < callbackBasePort+callbackPorts; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return ln, nil
		}
	}
	return nil, fmt.Errorf("could not bind to local port for OAuth callback")
}

type callbackResult struct {
	code string
	err  error
}

// authorize serves the redirect target on ln, waits for the code and
// exchanges it with a PKCE verifier. ln is closed on return.
func authorize(ctx context.Context, oc *oauth2.Config, ln net.Listener, prompt io.Writer) (*oauth2.Token, error) {
	redirect := *oc
	redirect.RedirectURL = fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	fmt.Fprintln(prompt, "Open this URL in your browser:")
	fmt.Fprintln(prompt, redirect.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errStateMismatch
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("no code in callback")
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>tasksync is authorized</h1><p>You may close this window.</p></body></html>")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	var res callbackResult
	select {
	case res = <-results:
	case <-time.After(callbackTimeout):
		return nil, errors.New("oauth callback timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	token, err := redirect.Exchange(exchangeCtx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleTokenFile, err)
	}
	return &token, nil
}

// writeToken stores token readable by the owner only.
func writeToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
