// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"zendo/internal/commands"
	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/gateway"
)

// EnvFactory builds the command environment from config. nav is told when
// the remote service rejects the stored credential. The returned func
// releases resources and is called after the command finishes.
type EnvFactory func(ctx context.Context, cfg *config.Config, nav gateway.Navigator) (*commands.Env, func(), error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  EnvFactory
}

// NewDispatcher creates a new dispatcher with the given registry and env factory.
func NewDispatcher(registry *commands.Registry, factory EnvFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves
	fs.Usage = func() {}

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "Usage: %s\n", cmd.Usage())
			return exitcode.Success
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	// Load config
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	var env *commands.Env
	if cmd.NeedsEnv() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.BackendError
		}
		var cleanup func()
		env, cleanup, err = d.factory(ctx, cfg, newReauthNotice(errOut))
		if err != nil {
			code := exitcode.Of(err, exitcode.BackendError)
			if code == exitcode.AuthError {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			} else {
				fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			}
			return code
		}
		if cleanup != nil {
			defer cleanup()
		}
	}

	return cmd.Run(ctx, cfg, env, fs.Args(), out, errOut)
}

// reauthNotice tells the user, once per command, that the stored credential
// was rejected and they need to log in again.
type reauthNotice struct {
	w    io.Writer
	once sync.Once
}

func newReauthNotice(w io.Writer) *reauthNotice {
	return &reauthNotice{w: w}
}

// ReauthRequired implements gateway.Navigator.
func (n *reauthNotice) ReauthRequired() {
	n.once.Do(func() {
		fmt.Fprintln(n.w, "session expired (run: zendo login)")
	})
}
