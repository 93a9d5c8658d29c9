// Package exitcode maps the error taxonomy to CLI exit codes.
package exitcode

import (
	"os"

	"github.com/paylinehq/adminctl/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or session failure
	AuthError = 3

	// NetworkError indicates a connectivity or backend availability issue
	NetworkError = 4

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code.
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with a code derived from the error's kind.
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to its exit code.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.KindOf(err) {
	case errors.KindUnauthorized, errors.KindForbidden, errors.KindTokenInvalid:
		return AuthError
	case errors.KindNetwork, errors.KindTimeout, errors.KindServer:
		return NetworkError
	case errors.KindCanceled:
		return Interrupted
	case errors.KindValidation:
		return UsageError
	default:
		return GeneralError
	}
}
