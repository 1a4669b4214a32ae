package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/logging"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// ServiceFactory creates the task backend for a command that needs auth.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, env *commands.Env) (service.Service, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStdin sets the reader prompts and the shell read from.
func WithStdin(r io.Reader) Option {
	return func(d *Dispatcher) { d.stdin = r }
}

// WithGetenv replaces os.Getenv for configuration overrides.
func WithGetenv(fn func(string) string) Option {
	return func(d *Dispatcher) { d.getenv = fn }
}

// WithSetup registers a hook that runs on every Env before the command.
func WithSetup(fn func(env *commands.Env)) Option {
	return func(d *Dispatcher) { d.setup = fn }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	stdin    io.Reader
	getenv   func(string) string
	setup    func(env *commands.Env)
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
		stdin:    os.Stdin,
		getenv:   os.Getenv,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir   string
	quiet       bool
	debug       bool
	baseURL     string
	fallbackURL string
	backend     string
	logFormat   string
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "config directory")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress informational output")
	fs.BoolVar(&f.debug, "debug", false, "print debug logs to stderr")
	fs.StringVar(&f.baseURL, "base-url", "", "backend base URL")
	fs.StringVar(&f.fallbackURL, "fallback-url", "", "same-origin fallback URL")
	fs.StringVar(&f.backend, "backend", "", "rest or googletasks")
	fs.StringVar(&f.logFormat, "log-format", "", "text or json")
}

// apply overrides cfg with every flag that was given.
func (f *commonFlags) apply(cfg *config.Config) {
	cfg.Quiet = f.quiet
	cfg.Debug = f.debug
	if f.baseURL != "" {
		cfg.BaseURL = f.baseURL
	}
	if f.fallbackURL != "" {
		cfg.FallbackURL = f.fallbackURL
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "Usage: %s\n", cmd.Usage())
			return exitcode.Success
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	positionalArgs := fs.Args()

	cfg, err := config.Load(common.configDir, d.getenv)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	common.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	logger := logging.New(errOut, cfg.Debug, cfg.LogFormat)
	env, err := commands.NewEnv(cfg, logger, NewNavigator(errOut), d.stdin)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	if d.setup != nil {
		d.setup(env)
	}

	if cmd.NeedsAuth() {
		if code, ok := d.checkAuth(env, errOut); !ok {
			return code
		}
		if d.factory != nil {
			svc, err := d.factory(ctx, env)
			if err != nil {
				if session.IsAuthExpired(err) {
					fmt.Fprintf(errOut, "error: %s\n", err)
				} else {
					fmt.Fprintf(errOut, "error: backend error: %s\n", err)
				}
				return exitcode.For(err)
			}
			env.Svc = svc
		}
	}

	logger.Debug("dispatch", "command", cmd.Name(), "backend", cfg.Backend, "base_url", cfg.BaseURL)
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// checkAuth reports the missing or expired credentials that make a command
// pointless to run.
func (d *Dispatcher) checkAuth(env *commands.Env, errOut io.Writer) (int, bool) {
	cfg := env.Cfg
	if cfg.Backend == config.BackendGoogleTasks {
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
			return exitcode.AuthError, false
		}
		if !cfg.HasGoogleToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: tasksync login)")
			return exitcode.AuthError, false
		}
		return exitcode.Success, true
	}

	if !env.Creds.Present() {
		fmt.Fprintln(errOut, "error: not logged in (run: tasksync login)")
		return exitcode.AuthError, false
	}
	// An expired token is dropped and the navigator reports it.
	if !env.Sess.Guard() {
		return exitcode.AuthError, false
	}
	return exitcode.Success, true
}
