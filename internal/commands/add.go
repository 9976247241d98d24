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
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// addFlags are the flags shared by add and create.
type addFlags struct {
	priority string
	category string
}

func (f *addFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.priority, "priority", "p", "", "")
	fs.StringVarP(&f.category, "category", "c", "", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	addFlags
}

// SetOptions sets priority and category (for testing).
func (c *AddCmd) SetOptions(priority, category string) {
	c.priority = priority
	c.category = category
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "zendo add [--priority <low|medium|high>] [--category <name>] <title...>"
}
func (c *AddCmd) NeedsEnv() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) { c.register(fs) }

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, env, c.addFlags, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	addFlags
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "zendo create [--priority <low|medium|high>] [--category <name>] <title...>"
}
func (c *CreateCmd) NeedsEnv() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *pflag.FlagSet) { c.register(fs) }

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, env, c.addFlags, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, env *Env, flags addFlags, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	prio := flags.priority
	if prio == "" {
		prio = cfg.Settings.DefaultPriority
	}
	priority, err := service.ParsePriority(prio)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	category := strings.TrimSpace(flags.category)
	if category == "" {
		category = cfg.Settings.DefaultCategory
	}

	if _, err := env.Tasks.Create(ctx, service.NewTask(title, priority, category)); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
