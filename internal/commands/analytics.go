package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"tasksync/internal/analytics"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
)

func init() {
	Register(&AnalyticsCmd{})
}

// AnalyticsCmd prints the dashboard analytics: the summary counters and the
// chart series for a time range.
type AnalyticsCmd struct {
	rangeName string
	summary   bool
	all       bool
	now       func() time.Time
}

func (c *AnalyticsCmd) Name() string      { return "analytics" }
func (c *AnalyticsCmd) Aliases() []string { return []string{"stats"} }
func (c *AnalyticsCmd) Synopsis() string  { return "Show analytics" }
func (c *AnalyticsCmd) Usage() string {
	return "tasksync analytics [--range 90d|30d|7d] [--summary] [--all-series]"
}
func (c *AnalyticsCmd) NeedsAuth() bool { return true }

func (c *AnalyticsCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.rangeName, "range", "r", string(analytics.DefaultRange), "time range: 90d, 30d or 7d")
	fs.BoolVarP(&c.summary, "summary", "s", false, "show the summary counters only")
	fs.BoolVar(&c.all, "all-series", false, "show every series instead of the first few")
}

// SetClock fixes the reference time used when the series has no usable
// dates (for testing).
func (c *AnalyticsCmd) SetClock(now func() time.Time) {
	c.now = now
}

func (c *AnalyticsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	r, err := analytics.ParseRange(c.rangeName)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if c.summary {
		cards, err := env.SummaryChain().Summary(ctx)
		if err != nil {
			return report(errOut, err)
		}
		output.FormatCards(out, cards)
		return exitcode.Success
	}

	series, err := env.ChartChain().Series(ctx)
	if err != nil {
		return report(errOut, err)
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	filtered := analytics.Filter(series, r, now())

	keys := analytics.Visible(filtered)
	if c.all {
		keys = analytics.Keys(filtered)
	}
	if len(filtered) == 0 {
		if !env.Cfg.Quiet {
			fmt.Fprintln(out, "no data in range")
		}
		return exitcode.Success
	}
	output.FormatSeries(out, filtered, keys)
	output.FormatHeader(out, "Totals")
	output.FormatTotals(out, analytics.Totals(filtered), keys)
	return exitcode.Success
}
