package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"tasksync/internal/account"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	username     string
	passwordFile string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "tasksync signup [--username <name>] [--password-file <path|->]"
}
func (c *SignupCmd) NeedsAuth() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.username, "username", "u", "", "account name (prompted when empty)")
	fs.StringVar(&c.passwordFile, "password-file", "", "read the password from a file, - for stdin")
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if env.Cfg.Backend == config.BackendGoogleTasks {
		io.WriteString(errOut, "error: signup is not available for the googletasks backend\n")
		return exitcode.UserError
	}

	creds, err := promptCredentials(env, c.username, c.passwordFile, errOut)
	if err != nil {
		return report(errOut, err)
	}
	// A password read from a file is taken as already confirmed.
	confirm := creds.Password
	if c.passwordFile == "" {
		if confirm, err = readPassword(env, "Confirm password: ", errOut); err != nil {
			return report(errOut, err)
		}
	}

	flows := account.New(env.Authenticator(), env.Creds, env.Nav, env.Logger)
	res, err := flows.Signup(ctx, creds, confirm)
	return finishAccount(env, res, err, out, errOut)
}
