package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles completion, so running it
// twice reopens the task.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "zendo done <ref>" }
func (c *DoneCmd) NeedsEnv() bool    { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := resolveTaskArg(ctx, env.Tasks, args, errOut)
	if !ok {
		return code
	}

	completed := !task.Completed
	return applyPatch(ctx, cfg, env, task, service.Patch{Completed: &completed}, out, errOut)
}

// applyPatch updates task and reports the outcome. A nil result means the
// task vanished between listing and updating.
func applyPatch(ctx context.Context, cfg *config.Config, env *Env, task service.Task, patch service.Patch, out, errOut io.Writer) int {
	updated, err := env.Tasks.Update(ctx, task.ID, patch)
	if err != nil {
		return reportError(errOut, err)
	}
	if updated == nil {
		fmt.Fprintf(errOut, "error: %v: %s\n", errTaskNotFound, task.ID)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
