package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasksync/internal/exitcode"
	"tasksync/internal/normalize"
	"tasksync/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasksync` (no args) and `tasksync list`.
type ListCmd struct {
	long     bool
	jsonOut  bool
	openOnly bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "tasksync list [--long] [--open] [--json]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.long, "long", "l", false, "show ids and descriptions")
	fs.BoolVar(&c.openOnly, "open", false, "hide completed tasks")
	fs.BoolVar(&c.jsonOut, "json", false, "print the normalized list as JSON")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	eng := env.Engine(ctx)
	defer eng.Close()
	if err := eng.Load(ctx); err != nil {
		return report(errOut, err)
	}
	tasks := eng.Tasks()

	if c.jsonOut {
		b, err := normalize.Encode(tasks)
		if err != nil {
			return report(errOut, err)
		}
		fmt.Fprintf(out, "%s\n", b)
		return exitcode.Success
	}

	shown := 0
	for i, task := range tasks {
		if c.openOnly && task.IsCompleted.Done() {
			continue
		}
		// Row numbers always refer to the full list so they stay valid
		// for done/rm/edit.
		if c.long {
			output.FormatTaskDetail(out, i+1, task)
		} else {
			output.FormatTask(out, i+1, task)
		}
		shown++
	}
	if shown == 0 && !env.Cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
