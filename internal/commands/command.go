// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"zendo/internal/advisor"
	"zendo/internal/backend/httpapi"
	"zendo/internal/config"
	"zendo/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsEnv returns true if the command uses the task store, session or
	// advisor. Commands like help and version return false.
	NeedsEnv() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, settings).
	// env is nil if NeedsEnv() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}

// Identity is the credential holder commands read and update.
type Identity interface {
	User() (service.User, bool)
	LoggedIn() bool
	Token() *oauth2.Token
	SetCredential(token string, user service.User) error
	SetToken(token *oauth2.Token, user service.User) error
	ClearCredential() error
}

// PasswordAuth is implemented by backends with their own accounts.
type PasswordAuth interface {
	Login(ctx context.Context, creds httpapi.Credentials) (httpapi.AuthResult, error)
	Register(ctx context.Context, reg httpapi.Registration) (httpapi.AuthResult, error)
}

// Advisor suggests subtasks and daily priorities.
type Advisor interface {
	Enabled() bool
	Decompose(ctx context.Context, title string) []string
	Insights(ctx context.Context, tasks []service.Task) *advisor.Insight
}

// Env carries the collaborators a command runs against.
type Env struct {
	// Tasks is the task store: the remote service with local fallback.
	Tasks service.Service

	Session Identity

	// Auth is nil when the backend logs in through OAuth instead.
	Auth PasswordAuth

	Advisor Advisor
}
