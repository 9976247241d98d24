package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"zendo/internal/remote"
	"zendo/internal/service"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the service's response to a successful login or register.
type AuthResult struct {
	Token string       `json:"token"`
	User  service.User `json:"user"`
}

// AuthError is a login/registration failure with a message fit for display.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// Login exchanges credentials for a token. Unlike task operations, failures
// here are returned to the caller as *AuthError.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (AuthResult, error) {
	var res AuthResult
	if _, err := c.do(ctx, http.MethodPost, path, body, &res, false); err != nil {
		return AuthResult{}, authError(err)
	}
	if res.Token == "" {
		return AuthResult{}, &AuthError{Message: "authentication failed: server returned no token"}
	}
	return res, nil
}

// authError maps a remote failure to a message for the login form.
func authError(err error) *AuthError {
	f := remote.Classify(err)
	switch f.Reason {
	case remote.Unreachable:
		return &AuthError{Message: "cannot reach the task service; try again later", Err: err}
	case remote.Malformed:
		return &AuthError{Message: "authentication failed: unexpected response from server", Err: err}
	case remote.Unauthorized:
		return &AuthError{Message: detail(f, "invalid email or password"), Err: err}
	default:
		return &AuthError{Message: detail(f, fmt.Sprintf("authentication failed (status %d)", f.Status)), Err: err}
	}
}

// detail prefers the server-supplied message when there is one.
func detail(f *remote.Failure, fallback string) string {
	if f.Err != nil && f.Err.Error() != "" && f.Err.Error() != http.StatusText(f.Status) {
		return f.Err.Error()
	}
	return fallback
}

// IsAuthError reports whether err is a login/registration failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
