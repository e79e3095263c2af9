// Package exitcode is the process exit status contract of the corrsweep CLI.
package exitcode

import (
	"context"

	"github.com/teranos/corrsweep/errors"
)

// These codes form the contract with scripts and CI jobs that drive a sweep
const (
	Success       = 0   // Every invocation ran (failures allowed unless --strict)
	RuntimeError  = 1   // Database, filesystem or other infrastructure error
	InvalidConfig = 2   // Bad configuration, unknown evaluator, invalid plan
	Failures      = 3   // --strict and at least one invocation failed
	Cancelled     = 130 // Interrupted by SIGINT/SIGTERM
)

// FromError maps an error returned by a command to an exit code
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.IsCancelledError(err), errors.Is(err, context.Canceled):
		return Cancelled
	case errors.IsInvalidRequestError(err):
		return InvalidConfig
	default:
		return RuntimeError
	}
}

// ForRun maps a finished run's status to an exit code
func ForRun(cancelled bool, failed int, strict bool) int {
	switch {
	case cancelled:
		return Cancelled
	case strict && failed > 0:
		return Failures
	default:
		return Success
	}
}

// Error carries an exit code up to main without printing anything.
// Err, when set, is the cause the code was derived from.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	switch e.Code {
	case Failures:
		return "invocations failed"
	case Cancelled:
		return "cancelled"
	}
	return "exit status"
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the exit code for err, honouring an *Error anywhere in the chain
func Code(err error) int {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return FromError(err)
}
