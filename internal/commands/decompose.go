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
	Register(&DecomposeCmd{})
}

// DecomposeCmd asks the advisor to break a task into subtasks and stores
// them on the task.
type DecomposeCmd struct{}

func (c *DecomposeCmd) Name() string      { return "decompose" }
func (c *DecomposeCmd) Aliases() []string { return []string{"split"} }
func (c *DecomposeCmd) Synopsis() string  { return "Break a task into subtasks with the advisor" }
func (c *DecomposeCmd) Usage() string     { return "zendo decompose <ref>" }
func (c *DecomposeCmd) NeedsEnv() bool    { return true }

func (c *DecomposeCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DecomposeCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env.Advisor == nil || !env.Advisor.Enabled() {
		fmt.Fprintln(errOut, "error: advisor not configured (set GEMINI_API_KEY)")
		return exitcode.AuthError
	}

	task, code, ok := resolveTaskArg(ctx, env.Tasks, args, errOut)
	if !ok {
		return code
	}

	subtasks := env.Advisor.Decompose(ctx, task.Title)
	if len(subtasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no subtasks suggested")
		}
		return exitcode.Success
	}

	updated, err := env.Tasks.Update(ctx, task.ID, service.Patch{Subtasks: &subtasks})
	if err != nil {
		return reportError(errOut, err)
	}
	if updated == nil {
		fmt.Fprintf(errOut, "error: %v: %s\n", errTaskNotFound, task.ID)
		return exitcode.UserError
	}

	output.FormatSubtasks(out, updated.Subtasks)
	return exitcode.Success
}
