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
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "zendo logout [common flags]" }
func (c *LogoutCmd) NeedsEnv() bool    { return true }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if !env.Session.LoggedIn() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := env.Session.ClearCredential(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove credential: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// WhoamiCmd prints the logged-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "zendo whoami" }
func (c *WhoamiCmd) NeedsEnv() bool    { return true }

func (c *WhoamiCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if !env.Session.LoggedIn() {
		fmt.Fprintln(out, "not logged in")
		return exitcode.Success
	}
	user, ok := env.Session.User()
	if !ok {
		fmt.Fprintln(out, "logged in")
		return exitcode.Success
	}
	if user.Email != "" && user.Email != user.Username {
		fmt.Fprintf(out, "%s <%s>\n", displayName(user), user.Email)
		return exitcode.Success
	}
	fmt.Fprintln(out, displayName(user))
	return exitcode.Success
}
