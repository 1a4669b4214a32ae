package commands

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"tasksync/internal/analytics"
	"tasksync/internal/backend/rest"
	"tasksync/internal/config"
	"tasksync/internal/credential"
	"tasksync/internal/engine"
	"tasksync/internal/logging"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/transport"
)

// Env is everything a command runs against. The dispatcher builds one per
// invocation; tests build it directly.
type Env struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Creds  *credential.Holder
	Nav    session.Navigator
	Sess   *session.Handler

	// Svc is the task backend, set for commands that need auth.
	Svc service.Service

	// Auth overrides the authenticator derived from the transport.
	Auth service.Authenticator

	// ChartSources and SummarySources override the analytics sources derived
	// from the transport.
	ChartSources   []analytics.Source
	SummarySources []analytics.Source

	// In is read by prompts and the shell.
	In io.Reader

	// HTTPClient is used for both endpoints; nil means http.DefaultClient.
	HTTPClient *http.Client

	trOnce sync.Once
	tr     *transport.Resolver

	linesOnce sync.Once
	lines     *bufio.Reader
}

// NewEnv wires the session pieces around cfg. The credential is loaded from
// cfg's token file.
func NewEnv(cfg *config.Config, logger *slog.Logger, nav session.Navigator, in io.Reader) (*Env, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	creds := credential.NewHolder(credential.FileStore{Path: cfg.TokenPath()})
	if err := creds.Load(); err != nil {
		return nil, err
	}
	return &Env{
		Cfg:    cfg,
		Logger: logger,
		Creds:  creds,
		Nav:    nav,
		Sess:   session.NewHandler(creds, nav, logger),
		In:     in,
	}, nil
}

// Transport returns the resolver for the configured endpoints, building it
// on first use.
func (e *Env) Transport() *transport.Resolver {
	e.trOnce.Do(func() {
		opts := []transport.Option{
			transport.WithFallback(e.Cfg.FallbackURL, e.HTTPClient),
			transport.WithTimeout(e.Cfg.Timeout),
			transport.WithLogger(e.Logger),
		}
		if e.Cfg.RateLimit > 0 {
			burst := e.Cfg.RateBurst
			if burst < 1 {
				burst = 1
			}
			opts = append(opts, transport.WithRateLimit(rate.Limit(e.Cfg.RateLimit), burst))
		}
		e.tr = transport.New(e.Cfg.BaseURL, e.HTTPClient, e.Creds, opts...)
	})
	return e.tr
}

// Authenticator returns the account backend.
func (e *Env) Authenticator() service.Authenticator {
	if e.Auth != nil {
		return e.Auth
	}
	return rest.New(e.Transport())
}

// Engine opens a view over e.Svc that lives as long as ctx.
func (e *Env) Engine(ctx context.Context, opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{engine.WithLogger(e.Logger)}, opts...)
	return engine.New(ctx, e.Svc, e.Sess, opts...)
}

// ChartChain returns the chart source chain: same-origin first, then the
// backend.
func (e *Env) ChartChain() *analytics.Chain {
	sources := e.ChartSources
	if sources == nil {
		sources = []analytics.Source{analytics.SameOrigin(e.Transport()), analytics.Backend(e.Transport())}
	}
	return analytics.NewChain(e.Sess, e.Logger, sources...)
}

// SummaryChain returns the source chain for the summary counters.
func (e *Env) SummaryChain() *analytics.Chain {
	sources := e.SummarySources
	if sources == nil {
		sources = []analytics.Source{analytics.Backend(e.Transport())}
	}
	return analytics.NewChain(e.Sess, e.Logger, sources...)
}

// Lines returns a line reader over In shared by every prompt.
func (e *Env) Lines() *bufio.Reader {
	e.linesOnce.Do(func() {
		in := e.In
		if in == nil {
			in = strings.NewReader("")
		}
		e.lines = bufio.NewReader(in)
	})
	return e.lines
}
