package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/output"
	"zendo/internal/service"
)

func init() {
	Register(&CategoriesCmd{})
}

// CategoriesCmd implements the categories command.
type CategoriesCmd struct{}

func (c *CategoriesCmd) Name() string      { return "categories" }
func (c *CategoriesCmd) Aliases() []string { return []string{"cats"} }
func (c *CategoriesCmd) Synopsis() string  { return "List categories with task counts" }
func (c *CategoriesCmd) Usage() string     { return "zendo categories" }
func (c *CategoriesCmd) NeedsEnv() bool    { return true }

func (c *CategoriesCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *CategoriesCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	tasks, err := env.Tasks.List(ctx)
	if err != nil {
		return reportError(errOut, err)
	}

	names, counts := categories(tasks)
	if len(names) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	for _, name := range names {
		output.FormatCategory(out, name, counts[name])
	}
	return exitcode.Success
}

// categories returns distinct categories in first-seen order.
func categories(tasks []service.Task) ([]string, map[string]int) {
	var names []string
	counts := make(map[string]int)
	for _, t := range tasks {
		if _, seen := counts[t.Category]; !seen {
			names = append(names, t.Category)
		}
		counts[t.Category]++
	}
	return names, counts
}
