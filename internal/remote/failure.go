// Package remote classifies remote-service failures.
//
// Backends never return raw transport errors to the gateway. Every failure is
// a *Failure carrying a Reason, so the gateway can decide between falling back
// to the local snapshot, clearing the credential, or accepting a not-found.
package remote

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Reason classifies why a remote call did not succeed.
type Reason int

const (
	// Unreachable covers connection, DNS and timeout failures.
	Unreachable Reason = iota + 1
	// Rejected is a non-success status other than 401 and 404.
	Rejected
	// Unauthorized is a 401 from the service.
	Unauthorized
	// Malformed is a success status with an unparseable body.
	Malformed
	// NotFound is a 404 for a specific record.
	NotFound
)

func (r Reason) String() string {
	switch r {
	case Unreachable:
		return "unreachable"
	case Rejected:
		return "rejected"
	case Unauthorized:
		return "unauthorized"
	case Malformed:
		return "malformed"
	case NotFound:
		return "not found"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Failure is the error type returned by remote backends.
type Failure struct {
	Reason Reason
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (f *Failure) Error() string {
	msg := "remote " + f.Reason.String()
	if f.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", f.Status)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Unreachablef builds an Unreachable failure.
func Unreachablef(err error) *Failure {
	return &Failure{Reason: Unreachable, Err: err}
}

// Malformedf builds a Malformed failure.
func Malformedf(status int, err error) *Failure {
	return &Failure{Reason: Malformed, Status: status, Err: err}
}

// FromStatus builds the failure for a non-success HTTP status.
func FromStatus(status int, err error) *Failure {
	switch status {
	case http.StatusUnauthorized:
		return &Failure{Reason: Unauthorized, Status: status, Err: err}
	case http.StatusNotFound:
		return &Failure{Reason: NotFound, Status: status, Err: err}
	default:
		return &Failure{Reason: Rejected, Status: status, Err: err}
	}
}

// Classify converts an arbitrary error into a *Failure. Nil stays nil.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return FromStatus(gerr.Code, err)
	}

	// Anything else was raised before a response was read: net errors,
	// refused connections, DNS failures.
	return Unreachablef(err)
}

// ReasonOf returns the reason of err, or 0 if err is nil.
func ReasonOf(err error) Reason {
	if f := Classify(err); f != nil {
		return f.Reason
	}
	return 0
}

// IsSuccess reports whether a status code is a success (2xx).
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
