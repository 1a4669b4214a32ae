// Package analytics fetches and shapes the dashboard's analytics: the chart
// time series and the summary counters.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"tasksync/internal/logging"
	"tasksync/internal/normalize"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/transport"
)

const (
	// LocalPath is the same-origin analytics route.
	LocalPath = "/api/analytics"

	// BackendPath is the backend analytics route.
	BackendPath = "/analytics"
)

// ErrNoData is returned when no source produced a payload.
var ErrNoData = errors.New("no chart data")

// Source produces a decoded analytics payload. A nil payload with a nil
// error means the source had nothing to offer.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (any, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	Label string
	Fn    func(ctx context.Context) (any, error)
}

// Name implements Source.
func (s SourceFunc) Name() string { return s.Label }

// Fetch implements Source.
func (s SourceFunc) Fetch(ctx context.Context) (any, error) { return s.Fn(ctx) }

type sameOrigin struct{ tr *transport.Resolver }

// SameOrigin returns the source that reads LocalPath from the resolver's
// same-origin endpoint.
func SameOrigin(tr *transport.Resolver) Source { return sameOrigin{tr} }

func (s sameOrigin) Name() string { return transport.SameOriginName + " " + LocalPath }

func (s sameOrigin) Fetch(ctx context.Context) (any, error) {
	if !s.tr.HasFallback() {
		return nil, nil
	}
	resp, err := s.tr.SameOrigin(ctx, transport.Request{Method: http.MethodGet, Path: LocalPath})
	if err != nil {
		return nil, err
	}
	return resp.Decode(), nil
}

type backend struct{ tr *transport.Resolver }

// Backend returns the source that reads BackendPath from the primary
// endpoint.
func Backend(tr *transport.Resolver) Source { return backend{tr} }

func (s backend) Name() string { return transport.PrimaryName + " " + BackendPath }

func (s backend) Fetch(ctx context.Context) (any, error) {
	resp, err := s.tr.Do(ctx, transport.Request{Method: http.MethodGet, Path: BackendPath})
	if err != nil {
		return nil, err
	}
	return resp.Decode(), nil
}

// Chain consults sources in order. The first one that returns a payload
// wins; failures other than an expired session move on to the next source.
type Chain struct {
	sources []Source
	sess    *session.Handler
	logger  *slog.Logger
}

// NewChain creates a Chain. sess and logger may be nil.
func NewChain(sess *session.Handler, logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Chain{sources: sources, sess: sess, logger: logger.With("component", "analytics")}
}

// Payload returns the first payload any source produced.
func (c *Chain) Payload(ctx context.Context) (any, error) {
	for _, src := range c.sources {
		v, err := src.Fetch(ctx)
		if err != nil {
			if session.IsAuthExpired(err) {
				if c.sess != nil {
					c.sess.Handle(err)
				}
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debug("analytics source failed", "source", src.Name(), "error", err)
			continue
		}
		if v == nil {
			c.logger.Debug("analytics source empty", "source", src.Name())
			continue
		}
		return v, nil
	}
	return nil, fmt.Errorf("%d sources tried: %w", len(c.sources), ErrNoData)
}

// Series fetches and normalizes the chart time series.
func (c *Chain) Series(ctx context.Context) (service.Series, error) {
	v, err := c.Payload(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.Series(v), nil
}
