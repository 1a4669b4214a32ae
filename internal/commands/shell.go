package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"tasksync/internal/engine"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd keeps one task view open and applies commands read from stdin to
// it. Row numbers refer to the view as last printed.
type ShellCmd struct{}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string  { return "Interactive task view" }
func (c *ShellCmd) Usage() string     { return "tasksync shell" }
func (c *ShellCmd) NeedsAuth() bool   { return true }

func (c *ShellCmd) RegisterFlags(fs *pflag.FlagSet) {}

const shellHelp = `Commands:
  list                 Show the view
  add <title...>       Create a task
  edit <ref> <title...>
  done <ref>           Toggle completion
  rm <ref>             Delete a task
  reload               Fetch the list again
  quit
`

func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	eng := env.Engine(ctx, engine.WithObserver(debugObserver(env)))
	defer eng.Close()

	if err := eng.Load(ctx); err != nil {
		return report(errOut, err)
	}
	printView(out, eng)

	lines := env.Lines()
	for {
		if !env.Cfg.Quiet {
			fmt.Fprint(errOut, "> ")
		}
		line, readErr := lines.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) > 0 {
			done, err := c.exec(ctx, env, eng, fields, out)
			if session.IsAuthExpired(err) || errors.Is(err, engine.ErrViewClosed) {
				return report(errOut, err)
			}
			if err != nil {
				report(errOut, err)
			}
			if done {
				return exitcode.Success
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return exitcode.Success
			}
			fmt.Fprintf(errOut, "error: %v\n", readErr)
			return exitcode.UserError
		}
	}
}

// exec runs one shell command. done reports that the shell should exit.
func (c *ShellCmd) exec(ctx context.Context, env *Env, eng *engine.Engine, fields []string, out io.Writer) (done bool, err error) {
	name, rest := fields[0], fields[1:]
	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(out, shellHelp)
	case "list", "ls":
		printView(out, eng)
	case "reload":
		if err := eng.Load(ctx); err != nil {
			return false, err
		}
		printView(out, eng)
	case "add", "create":
		if _, err := eng.Create(ctx, service.Draft{Title: strings.Join(rest, " ")}); err != nil {
			return false, err
		}
		printView(out, eng)
	case "edit":
		task, err := shellRef(eng, rest)
		if err != nil {
			return false, err
		}
		draft := service.Draft{Title: strings.Join(rest[1:], " "), Description: task.Description}
		if _, err := eng.Edit(ctx, task.ID, draft); err != nil {
			return false, err
		}
		printView(out, eng)
	case "done", "toggle":
		task, err := shellRef(eng, rest)
		if err != nil {
			return false, err
		}
		if _, err := eng.Toggle(ctx, task.ID); err != nil {
			return false, err
		}
		printView(out, eng)
	case "rm", "delete":
		task, err := shellRef(eng, rest)
		if err != nil {
			return false, err
		}
		if err := eng.Delete(ctx, task.ID); err != nil {
			return false, err
		}
		printView(out, eng)
	default:
		return false, &engine.ValidationError{Field: "command", Message: "unknown: " + name}
	}
	return false, nil
}

// shellRef resolves a reference against the view without reloading it.
func shellRef(eng *engine.Engine, args []string) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, &engine.ValidationError{Field: "task reference", Message: refMessage(err)}
	}
	return ref.Resolve(eng)
}

func printView(out io.Writer, eng *engine.Engine) {
	tasks := eng.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "no tasks found")
		return
	}
	for i, t := range tasks {
		output.FormatTask(out, i+1, t)
	}
}
