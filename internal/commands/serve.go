package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"tasksync/internal/demo"
	"tasksync/internal/exitcode"
)

// DefaultServeAddr is where serve listens unless --addr is given.
const DefaultServeAddr = "127.0.0.1:8787"

const shutdownTimeout = 5 * time.Second

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the local analytics endpoint that the same-origin chart
// source reads.
type ServeCmd struct {
	addr string

	// ready, when set, receives the bound address once listening.
	ready func(addr string)
}

// SetReady registers a callback that receives the bound address (for
// testing).
func (c *ServeCmd) SetReady(fn func(addr string)) {
	c.ready = fn
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve demo analytics on a local address" }
func (c *ServeCmd) Usage() string     { return "tasksync serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsAuth() bool   { return false }

func (c *ServeCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.addr, "addr", DefaultServeAddr, "listen address")
}

func (c *ServeCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = DefaultServeAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	srv := &http.Server{
		Handler:           demo.NewRouter(demo.NewGenerator(), env.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	bound := ln.Addr().String()
	env.Logger.Info("serving analytics", "addr", bound, "path", demo.AnalyticsPath)
	if !env.Cfg.Quiet {
		fmt.Fprintf(out, "serving http://%s%s\n", bound, demo.AnalyticsPath)
	}
	if c.ready != nil {
		c.ready(bound)
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
