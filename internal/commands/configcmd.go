package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"tasksync/internal/exitcode"
)

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd prints the effective settings, after config.yaml, the
// environment and flags have been applied. With --save they are written
// back to config.yaml.
type ConfigCmd struct {
	save bool
}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Show or save the effective settings" }
func (c *ConfigCmd) Usage() string     { return "tasksync config [--save]" }
func (c *ConfigCmd) NeedsAuth() bool   { return false }

func (c *ConfigCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.save, "save", false, "write the effective settings to config.yaml")
}

func (c *ConfigCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if c.save {
		if err := env.Cfg.Save(); err != nil {
			fmt.Fprintf(errOut, "error: failed to save settings: %v\n", err)
			return exitcode.UserError
		}
		if !env.Cfg.Quiet {
			fmt.Fprintf(out, "saved %s\n", env.Cfg.SettingsPath())
		}
		return exitcode.Success
	}

	data, err := yaml.Marshal(env.Cfg.Settings)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(out, "# %s\n%s", env.Cfg.SettingsPath(), data)
	return exitcode.Success
}
