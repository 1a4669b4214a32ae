package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"tasksync/internal/normalize"
)

// AnalyticsPath is the route the generator is served on.
const AnalyticsPath = "/api/analytics"

// NewRouter serves the generator on AnalyticsPath plus a /health probe.
func NewRouter(g *Generator, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc(AnalyticsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(g.Payload()); err != nil && logger != nil {
			logger.Warn("write analytics response", "error", err)
		}
	}).Methods(http.MethodGet)
	return r
}

// Fetch returns a decoded payload, shaped as if it had been read from the
// analytics route. It lets the generator stand in for a remote source.
func (g *Generator) Fetch(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(g.Payload())
	if err != nil {
		return nil, err
	}
	return normalize.Decode(b), nil
}

// Name identifies the generator as an analytics source.
func (g *Generator) Name() string { return "demo" }
