package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/output"
)

func init() {
	Register(&StatsCmd{})
}

// StatsCmd prints completion and priority counts.
type StatsCmd struct{}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show completion statistics" }
func (c *StatsCmd) Usage() string     { return "zendo stats" }
func (c *StatsCmd) NeedsEnv() bool    { return true }

func (c *StatsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	tasks, err := env.Tasks.List(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	output.FormatStats(out, output.ComputeStats(tasks))
	return exitcode.Success
}
