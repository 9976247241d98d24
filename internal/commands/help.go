package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd prints usage for every registered command.
type HelpCmd struct {
	// Registry defaults to DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "zendo help" }
func (c *HelpCmd) NeedsEnv() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	writeHelp(out, reg)
	return exitcode.Success
}

func writeHelp(w io.Writer, reg *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  zendo                      List all tasks")
	for _, cmd := range reg.All() {
		fmt.Fprintf(w, "  %s\n", cmd.Usage())
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(w, "      %s\n", line)
	}
	fmt.Fprint(w, helpFooter)
}

const helpFooter = `
A <ref> is a task number as shown by list, or a task id.
Priorities: low, medium, high.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
