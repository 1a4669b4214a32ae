package googletasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"tasksync/internal/config"
	"tasksync/internal/service"
)

// tokenServer is a minimal OAuth token endpoint.
type tokenServer struct {
	mu    sync.Mutex
	forms []url.Values
}

func (s *tokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.forms = append(s.forms, r.PostForm)
	s.mu.Unlock()

	if r.PostForm.Get("refresh_token") == "revoked" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`)
}

func (s *tokenServer) requests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.forms...)
}

func newTokenServer(t *testing.T) (*tokenServer, *httptest.Server) {
	t.Helper()
	ts := &tokenServer{}
	srv := httptest.NewServer(ts)
	t.Cleanup(srv.Close)
	return ts, srv
}

// browser plays the user: when the consent URL is printed it follows the
// redirect with a code and the state returned by forgeState.
type browser struct {
	code       string
	forgeState func(string) string
	authURL    chan *url.URL
	status     chan int
}

func newBrowser(code string) *browser {
	return &browser{
		code:       code,
		forgeState: func(s string) string { return s },
		authURL:    make(chan *url.URL, 1),
		status:     make(chan int, 1),
	}
}

func (b *browser) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	if !strings.HasPrefix(line, "https://") {
		return len(p), nil
	}
	u, err := url.Parse(line)
	if err != nil {
		return 0, err
	}
	b.authURL <- u
	q := u.Query()
	callback := q.Get("redirect_uri") + "?" + url.Values{
		"code":  {b.code},
		"state": {b.forgeState(q.Get("state"))},
	}.Encode()
	go func() {
		resp, err := http.Get(callback)
		if err != nil {
			b.status <- 0
			return
		}
		resp.Body.Close()
		b.status <- resp.StatusCode
	}()
	return len(p), nil
}

func loopback(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{tasksScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.test/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestAuthorize_ExchangesCodeWithVerifier(t *testing.T) {
	ts, srv := newTokenServer(t)
	b := newBrowser("code-123")

	token, err := authorize(context.Background(), testOAuthConfig(srv.URL+"/token"), loopback(t), b)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)
	assert.Equal(t, http.StatusOK, <-b.status)

	auth := (<-b.authURL).Query()
	assert.Equal(t, "S256", auth.Get("code_challenge_method"))
	assert.Equal(t, "offline", auth.Get("access_type"))
	assert.NotEmpty(t, auth.Get("state"))

	reqs := ts.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "authorization_code", reqs[0].Get("grant_type"))
	assert.Equal(t, "code-123", reqs[0].Get("code"))
	assert.NotEmpty(t, reqs[0].Get("code_verifier"))
	assert.Equal(t, auth.Get("redirect_uri"), reqs[0].Get("redirect_uri"))
}

func TestAuthorize_RejectsForeignState(t *testing.T) {
	ts, srv := newTokenServer(t)
	b := newBrowser("code-123")
	b.forgeState = func(string) string { return "someone-else" }

	_, err := authorize(context.Background(), testOAuthConfig(srv.URL+"/token"), loopback(t), b)
	assert.ErrorIs(t, err, errStateMismatch)
	assert.Equal(t, http.StatusBadRequest, <-b.status)
	assert.Empty(t, ts.requests())
}

func TestAuthorize_Cancelled(t *testing.T) {
	_, srv := newTokenServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var prompt strings.Builder
	_, err := authorize(ctx, testOAuthConfig(srv.URL+"/token"), loopback(t), &prompt)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, prompt.String(), "Open this URL in your browser:")
}

func writeOAuthClient(t *testing.T, cfg *config.Config, tokenURL string) {
	t.Helper()
	client := map[string]any{"installed": map[string]any{
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"auth_uri":      "https://accounts.example.test/auth",
		"token_uri":     tokenURL,
		"redirect_uris": []string{"http://localhost"},
	}}
	data, err := json.Marshal(client)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.OAuthClientPath(), data, 0o600))
}

func TestStoredToken_LoginStateAndLogout(t *testing.T) {
	ts, srv := newTokenServer(t)
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	writeOAuthClient(t, cfg, srv.URL+"/token")

	assert.False(t, AlreadyLoggedIn(cfg), "no token stored")
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, err, service.ErrAuthExpired)

	expired := &oauth2.Token{AccessToken: "old", RefreshToken: "refresh-0", Expiry: time.Now().Add(-time.Hour)}
	require.NoError(t, writeToken(cfg.GoogleTokenPath(), expired))
	info, err := os.Stat(cfg.GoogleTokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.True(t, AlreadyLoggedIn(cfg), "expired token refreshes")
	reqs := ts.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "refresh_token", reqs[0].Get("grant_type"))
	assert.Equal(t, "refresh-0", reqs[0].Get("refresh_token"))

	require.NoError(t, writeToken(cfg.GoogleTokenPath(), &oauth2.Token{AccessToken: "a"}))
	assert.False(t, AlreadyLoggedIn(cfg), "token without refresh token")

	require.NoError(t, writeToken(cfg.GoogleTokenPath(), &oauth2.Token{RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)}))
	assert.False(t, AlreadyLoggedIn(cfg), "revoked refresh token")

	require.NoError(t, Logout(cfg))
	assert.False(t, cfg.HasGoogleToken())
	assert.NoError(t, Logout(cfg), "logging out twice is fine")
}

func TestLogin_RequiresOAuthClient(t *testing.T) {
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)

	err = Login(context.Background(), cfg, &strings.Builder{})
	assert.ErrorIs(t, err, ErrNoOAuthClient)
}

func TestReadToken_Invalid(t *testing.T) {
	path := t.TempDir() + "/" + config.GoogleTokenFile
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := readToken(path)
	assert.ErrorContains(t, err, "invalid "+config.GoogleTokenFile)
}
