// Package transport executes logical backend requests against a primary
// base-URL endpoint, falling back to a same-origin endpoint for reads.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tasksync/internal/credential"
	"tasksync/internal/logging"
	"tasksync/internal/normalize"
	"tasksync/internal/service"
)

const (
	// APITimeout is the default timeout for a single request attempt.
	APITimeout = 5 * time.Second

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 10 << 20

	// Endpoint names used in logs and errors.
	PrimaryName    = "primary"
	SameOriginName = "same-origin"
)

// Endpoint is one place requests can be sent.
type Endpoint struct {
	Name    string
	BaseURL string
	Client  *http.Client
}

// Request is a logical backend request.
type Request struct {
	Method string
	Path   string
	Body   any

	// Fallback allows retrying on the same-origin endpoint after a
	// non-authorization failure. Only reads set it; mutations never fall back.
	Fallback bool

	// FallbackPath is the same-origin path; defaults to Path.
	FallbackPath string
}

// Response is a successful (2xx) response.
type Response struct {
	Endpoint string
	Status   int
	Body     []byte
}

// Decode decodes the body into a generic JSON value.
func (r *Response) Decode() any {
	return normalize.Decode(r.Body)
}

// Resolver sends requests with the holder's bearer token attached.
type Resolver struct {
	primary  Endpoint
	fallback *Endpoint
	creds    *credential.Holder
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFallback sets the same-origin endpoint.
func WithFallback(baseURL string, client *http.Client) Option {
	return func(r *Resolver) {
		if baseURL == "" {
			return
		}
		r.fallback = &Endpoint{Name: SameOriginName, BaseURL: baseURL, Client: orDefault(client)}
	}
}

// WithRateLimit bounds outgoing requests across both endpoints.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(r *Resolver) { r.limiter = rate.NewLimiter(limit, burst) }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver whose primary endpoint is baseURL. An empty baseURL
// leaves the primary unavailable, so reads go straight to the fallback.
func New(baseURL string, client *http.Client, creds *credential.Holder, opts ...Option) *Resolver {
	r := &Resolver{
		primary: Endpoint{Name: PrimaryName, BaseURL: baseURL, Client: orDefault(client)},
		creds:   creds,
		timeout: APITimeout,
		logger:  logging.Discard(),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With("component", "transport")
	return r
}

func orDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

// HasFallback reports whether a same-origin endpoint is configured.
func (r *Resolver) HasFallback() bool { return r.fallback != nil }

// Do sends req to the primary endpoint and, for reads that failed with
// anything but an authorization failure, to the same-origin endpoint.
// Authorization failures are returned as service.ErrAuthExpired and never
// fall back: a stale credential fails the same way everywhere.
func (r *Resolver) Do(ctx context.Context, req Request) (*Response, error) {
	var primaryErr error
	if r.primary.BaseURL != "" {
		resp, err := r.send(ctx, r.primary, req.Method, req.Path, req.Body)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, service.ErrAuthExpired) || !req.Fallback || r.fallback == nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		primaryErr = err
		r.logger.Warn("primary transport failed, falling back",
			"method", req.Method, "path", req.Path, "error", err)
	} else if !req.Fallback || r.fallback == nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrNoEndpoint)
	}

	path := req.FallbackPath
	if path == "" {
		path = req.Path
	}
	resp, err := r.send(ctx, *r.fallback, req.Method, path, req.Body)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, service.ErrAuthExpired) || primaryErr == nil {
		return nil, err
	}
	return nil, &FallbackError{Primary: primaryErr, Fallback: err}
}

// SameOrigin sends req only to the same-origin endpoint.
func (r *Resolver) SameOrigin(ctx context.Context, req Request) (*Response, error) {
	if r.fallback == nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrNoEndpoint)
	}
	return r.send(ctx, *r.fallback, req.Method, req.Path, req.Body)
}

func (r *Resolver) send(ctx context.Context, ep Endpoint, method, path string, body any) (*Response, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	url := strings.TrimRight(ep.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	masked := ""
	if r.creds != nil {
		if tok, ok := r.creds.Token(); ok {
			tok.SetAuthHeader(httpReq)
			masked = logging.MaskToken(tok.AccessToken)
		}
	}
	r.logger.Debug("request", "endpoint", ep.Name, "method", method, "path", path, "auth", masked)

	resp, err := ep.Client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Endpoint: ep.Name, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Endpoint: ep.Name, Method: method, Path: path, Err: err}
	}

	r.logger.Debug("response", "endpoint", ep.Name, "method", method, "path", path, "status", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s %s: %w", method, path, service.ErrAuthExpired)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Endpoint: ep.Name, Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}
	return &Response{Endpoint: ep.Name, Status: resp.StatusCode, Body: data}, nil
}
