package app

import (
	"errors"
	"fmt"
)

// Process exit statuses.
const (
	ExitOK          = 0
	ExitDayFailures = 1
	ExitSetup       = 2
)

// ExitError carries the process exit status for main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func setupError(err error) error {
	return &ExitError{Code: ExitSetup, Err: err}
}

// ExitCode maps an error returned by a command to a process exit status.
// Errors that carry no status are setup errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitSetup
}
