package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"zendo/internal/backend/httpapi"
	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command. With the http backend it exchanges
// email and password for a token; with googletasks it runs the OAuth flow.
type LoginCmd struct {
	email    string
	password string
}

// SetCredentials sets email and password (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email, c.password = email, password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in to the task service" }
func (c *LoginCmd) Usage() string     { return "zendo login [--email <email> --password <password>]" }
func (c *LoginCmd) NeedsEnv() bool    { return true }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env.Auth == nil {
		return loginGoogle(ctx, cfg, env, out, errOut)
	}

	email := strings.TrimSpace(c.email)
	if email == "" || c.password == "" {
		if env.Session.LoggedIn() {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
		fmt.Fprintln(errOut, "error: --email and --password required")
		return exitcode.UserError
	}

	res, err := env.Auth.Login(ctx, httpapi.Credentials{Email: email, Password: c.password})
	if err != nil {
		return reportAuthError(errOut, err)
	}
	return storeCredential(cfg, env, res, out, errOut)
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	username string
	email    string
	password string
}

// SetAccount sets the account fields (for testing).
func (c *RegisterCmd) SetAccount(username, email, password string) {
	c.username, c.email, c.password = username, email, password
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account on the task service" }
func (c *RegisterCmd) Usage() string {
	return "zendo register --username <name> --email <email> --password <password>"
}
func (c *RegisterCmd) NeedsEnv() bool { return true }

func (c *RegisterCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.username, "username", "u", "", "")
	fs.StringVarP(&c.email, "email", "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env.Auth == nil {
		fmt.Fprintf(errOut, "error: register is not supported by the %s backend\n", cfg.Settings.Backend)
		return exitcode.UserError
	}

	reg := httpapi.Registration{
		Username: strings.TrimSpace(c.username),
		Email:    strings.TrimSpace(c.email),
		Password: c.password,
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		fmt.Fprintln(errOut, "error: --username, --email and --password required")
		return exitcode.UserError
	}

	res, err := env.Auth.Register(ctx, reg)
	if err != nil {
		return reportAuthError(errOut, err)
	}
	return storeCredential(cfg, env, res, out, errOut)
}

func storeCredential(cfg *config.Config, env *Env, res httpapi.AuthResult, out, errOut io.Writer) int {
	if err := env.Session.SetCredential(res.Token, res.User); err != nil {
		fmt.Fprintf(errOut, "error: failed to save credential: %v\n", err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", displayName(res.User))
	}
	return exitcode.Success
}

func reportAuthError(errOut io.Writer, err error) int {
	var ae *httpapi.AuthError
	if errors.As(err, &ae) {
		fmt.Fprintf(errOut, "error: %s\n", ae.Message)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: %v\n", err)
	return exitcode.AuthError
}

func displayName(u service.User) string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	default:
		return "(unknown user)"
	}
}
