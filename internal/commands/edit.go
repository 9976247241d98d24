package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct {
	title    string
	priority string
	category string
}

// SetFields sets the new values (for testing). Empty strings leave a field
// unchanged.
func (c *EditCmd) SetFields(title, priority, category string) {
	c.title, c.priority, c.category = title, priority, category
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title, priority or category" }
func (c *EditCmd) Usage() string {
	return "zendo edit [--title <title>] [--priority <p>] [--category <name>] <ref>"
}
func (c *EditCmd) NeedsEnv() bool { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "")
	fs.StringVarP(&c.priority, "priority", "p", "", "")
	fs.StringVarP(&c.category, "category", "c", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	var patch service.Patch
	if t := strings.TrimSpace(c.title); t != "" {
		patch.Title = &t
	}
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.Priority = &p
	}
	if cat := strings.TrimSpace(c.category); cat != "" {
		patch.Category = &cat
	}
	if patch.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --priority or --category)")
		return exitcode.UserError
	}

	task, code, ok := resolveTaskArg(ctx, env.Tasks, args, errOut)
	if !ok {
		return code
	}
	return applyPatch(ctx, cfg, env, task, patch, out, errOut)
}
