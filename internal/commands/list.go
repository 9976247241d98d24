package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `zendo` (no args) and `zendo list`.
type ListCmd struct {
	category string
	open     bool
}

// SetFilter sets the filters (for testing).
func (c *ListCmd) SetFilter(category string, open bool) {
	c.category = category
	c.open = open
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "zendo list [--category <name>] [--open]" }
func (c *ListCmd) NeedsEnv() bool    { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.category, "category", "c", "", "")
	fs.BoolVar(&c.open, "open", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, err := env.Tasks.List(ctx)
	if err != nil {
		return reportError(errOut, err)
	}

	// Numbers are positions in the full collection so they stay valid as
	// task references when a filter hides some rows.
	shown := 0
	for i, task := range tasks {
		if c.open && task.Completed {
			continue
		}
		if c.category != "" && !strings.EqualFold(task.Category, c.category) {
			continue
		}
		output.FormatTask(out, i+1, task)
		shown++
	}

	if shown == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
