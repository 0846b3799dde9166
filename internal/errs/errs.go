// Package errs defines the error taxonomy shared by the fwt packages.
//
// Every helper wraps both a taxonomy sentinel and the underlying cause, so
// callers can test with errors.Is against either one.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAFile reports a path expected to be a regular file that is not.
	ErrNotAFile = errors.New("not a regular file")
	// ErrIO reports a stat, read, write or directory-list failure.
	ErrIO = errors.New("i/o error")
	// ErrInvalidArgument reports malformed user input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCache reports a failure of the persisted cache store.
	ErrCache = errors.New("cache error")
)

// IO wraps err as an ErrIO for the given operation and path.
func IO(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}

// NotAFile returns an ErrNotAFile error naming path.
func NotAFile(path string) error {
	return fmt.Errorf("%s: %w", path, ErrNotAFile)
}

// Cache wraps err as an ErrCache for the given operation.
func Cache(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCache, op, err)
}

// Invalid formats an ErrInvalidArgument error.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument):
		return 7
	case errors.Is(err, ErrCache):
		return 3
	default:
		return 1
	}
}
