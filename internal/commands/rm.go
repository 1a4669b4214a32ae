package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "tasksync rm <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	eng := env.Engine(ctx)
	defer eng.Close()

	task, err := loadRef(ctx, eng, args)
	if err != nil {
		return report(errOut, err)
	}
	if err := eng.Delete(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
