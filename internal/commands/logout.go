package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasksync/internal/account"
	"tasksync/internal/backend/googletasks"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "tasksync logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if env.Cfg.Backend == config.BackendGoogleTasks {
		if !env.Cfg.HasGoogleToken() {
			return notLoggedIn(env, out)
		}
		if err := googletasks.Logout(env.Cfg); err != nil {
			fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
			return exitcode.AuthError
		}
		return ok(env, out)
	}

	if !env.Creds.Present() {
		return notLoggedIn(env, out)
	}

	// Logging out lands on the login view; there is nothing to announce.
	quiet := session.NavigatorFunc(func(session.Route) {})
	res, err := account.New(env.Authenticator(), env.Creds, quiet, env.Logger).Logout()
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}
	if !env.Cfg.Quiet {
		fmt.Fprintln(out, res.Message)
	}
	return exitcode.Success
}

func notLoggedIn(env *Env, out io.Writer) int {
	if !env.Cfg.Quiet {
		fmt.Fprintln(out, "not logged in")
	}
	return exitcode.Success
}
