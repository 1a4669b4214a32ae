package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"tasksync/internal/engine"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command: it toggles a task's completion.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "tasksync done <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	eng := env.Engine(ctx, engine.WithObserver(debugObserver(env)))
	defer eng.Close()

	task, err := loadRef(ctx, eng, args)
	if err != nil {
		return report(errOut, err)
	}

	updated, err := eng.Toggle(ctx, task.ID)
	if err != nil {
		return report(errOut, err)
	}
	if !env.Cfg.Quiet {
		row := 1
		for i, t := range eng.Tasks() {
			if t.ID.Equal(updated.ID) {
				row = i + 1
				break
			}
		}
		output.FormatTask(out, row, updated)
	}
	return exitcode.Success
}

// debugObserver logs engine transitions at debug level.
func debugObserver(env *Env) engine.Observer {
	return func(t engine.Transition) {
		env.Logger.Debug("transition", "op", string(t.Op), "id", t.ID.String(), "state", t.State.String())
	}
}

