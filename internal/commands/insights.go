package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
)

func init() {
	Register(&InsightsCmd{})
}

// InsightsCmd prints the advisor's tip for the current list. It prints
// nothing when no advice is available.
type InsightsCmd struct{}

func (c *InsightsCmd) Name() string      { return "insights" }
func (c *InsightsCmd) Aliases() []string { return []string{"tip"} }
func (c *InsightsCmd) Synopsis() string  { return "Get a daily tip and priority from the advisor" }
func (c *InsightsCmd) Usage() string     { return "zendo insights" }
func (c *InsightsCmd) NeedsEnv() bool    { return true }

func (c *InsightsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *InsightsCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env.Advisor == nil || !env.Advisor.Enabled() {
		return exitcode.Success
	}

	tasks, err := env.Tasks.List(ctx)
	if err != nil {
		return reportError(errOut, err)
	}

	ins := env.Advisor.Insights(ctx, tasks)
	if ins == nil {
		return exitcode.Success
	}
	fmt.Fprintf(out, "tip:   %s\n", ins.Tip)
	fmt.Fprintf(out, "focus: %s\n", ins.PriorityAdvice)
	return exitcode.Success
}
