package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"tasksync/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasksync help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		name := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-20s %s\n", name, cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  tasksync                                     List all tasks
  tasksync list [--long] [--open] [--json]     List tasks
  tasksync add [--description <text>] <title...>
  tasksync create [--description <text>] <title...>
  tasksync edit <ref> [--title <text>] [--description <text>] [<title...>]
  tasksync done <ref>                          Toggle completion
  tasksync rm <ref>
  tasksync shell                               Interactive task view
  tasksync analytics [--range 90d|30d|7d] [--summary] [--all-series]
  tasksync serve [--addr <host:port>]          Serve demo analytics
  tasksync config [--save]                     Show or save settings
  tasksync login [--username <name>] [--password-file <path|->]
  tasksync signup [--username <name>] [--password-file <path|->]
  tasksync logout
  tasksync help
  tasksync version

Task references:
  <n>              Row number as shown by list
  #<id>            Task id

Common flags:
  --config <dir>          Override config directory
  --quiet                 Suppress informational output
  --debug                 Print debug logs to stderr
  --base-url <url>        Backend base URL
  --fallback-url <url>    Same-origin fallback URL
  --backend <name>        rest or googletasks
  --log-format <fmt>      text or json
`
