// Package exitcode defines exit codes for the CLI.
package exitcode

import "errors"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task reference).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a local storage failure or an unusable backend.
	// Remote failures fall back to the local snapshot and never surface here.
	BackendError = 3
)

// Error is an error that carries the exit code it should end the process with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches code to err. A nil err stays nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Of returns the code carried by err, or fallback if it carries none.
func Of(err error, fallback int) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return fallback
}
