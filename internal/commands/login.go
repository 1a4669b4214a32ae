package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasksync/internal/account"
	"tasksync/internal/backend/googletasks"
	"tasksync/internal/config"
	"tasksync/internal/engine"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. On the rest backend it exchanges a
// username and password for a token; on googletasks it runs the browser
// OAuth flow.
type LoginCmd struct {
	username     string
	passwordFile string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session token" }
func (c *LoginCmd) Usage() string {
	return "tasksync login [--username <name>] [--password-file <path|->]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.username, "username", "u", "", "account name (prompted when empty)")
	fs.StringVar(&c.passwordFile, "password-file", "", "read the password from a file, - for stdin")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if env.Cfg.Backend == config.BackendGoogleTasks {
		return googleLogin(ctx, env, out, errOut)
	}

	creds, err := promptCredentials(env, c.username, c.passwordFile, errOut)
	if err != nil {
		return report(errOut, err)
	}

	flows := account.New(env.Authenticator(), env.Creds, env.Nav, env.Logger)
	res, err := flows.Login(ctx, creds)
	return finishAccount(env, res, err, out, errOut)
}

// promptCredentials fills in whatever the flags left empty.
func promptCredentials(env *Env, username, passwordFile string, errOut io.Writer) (service.Credentials, error) {
	var err error
	if username == "" {
		if username, err = readLine(env, "Username: ", errOut); err != nil {
			return service.Credentials{}, err
		}
	}
	var password string
	if passwordFile != "" {
		password, err = readSecretFile(env, passwordFile)
	} else {
		password, err = readPassword(env, "Password: ", errOut)
	}
	if err != nil {
		return service.Credentials{}, err
	}
	return service.Credentials{Username: username, Password: password}, nil
}

// finishAccount prints the outcome of a login or signup.
func finishAccount(env *Env, res account.Result, err error, out, errOut io.Writer) int {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return report(errOut, err)
	}
	if err != nil {
		env.Logger.Debug("account request failed", "error", err)
		fmt.Fprintf(errOut, "error: %s\n", res.Message)
		return exitcode.For(err)
	}
	if !env.Cfg.Quiet {
		fmt.Fprintln(out, res.Message)
	}
	return exitcode.Success
}

func googleLogin(ctx context.Context, env *Env, out, errOut io.Writer) int {
	cfg := env.Cfg
	if !cfg.HasOAuthClient() {
		printOAuthSetup(cfg, errOut)
		return exitcode.AuthError
	}

	// Check if already logged in (token exists and is valid)
	if googletasks.AlreadyLoggedIn(cfg) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	if err := googletasks.Login(ctx, cfg, errOut); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(errOut, "error: cancelled")
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.AuthError
	}
	return ok(env, out)
}

func printOAuthSetup(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: %s not found in %s\n\n", config.OAuthClientFile, cfg.Dir)
	fmt.Fprintln(errOut, "To use the Google Tasks backend, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "4. Create an OAuth client ID of type 'Desktop app' and download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'tasksync login' again.")
}
