package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Unset fields keep their current
// value.
type EditCmd struct {
	title       string
	description string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "tasksync edit <ref> [--title <text>] [--description <text>] [<title...>]"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "new title")
	fs.StringVarP(&c.description, "description", "d", "", "new description")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	eng := env.Engine(ctx)
	defer eng.Close()

	task, err := loadRef(ctx, eng, args)
	if err != nil {
		return report(errOut, err)
	}

	draft := service.Draft{Title: task.Title, Description: task.Description}
	switch {
	case c.title != "" && len(args) > 1:
		fmt.Fprintln(errOut, "error: cannot use both --title and a positional title")
		return exitcode.UserError
	case c.title != "":
		draft.Title = c.title
	case len(args) > 1:
		draft.Title = strings.Join(args[1:], " ")
	}
	if c.description != "" {
		draft.Description = c.description
	}

	if _, err := eng.Edit(ctx, task.ID, draft); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
