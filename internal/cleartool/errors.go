package cleartool

import (
	"errors"
	"fmt"
)

// ExecutionError reports a cleartool invocation that failed to launch or
// exited with a nonzero code. ExitCode is -1 when the process never ran to
// completion (launch failure, timeout, cancellation).
type ExecutionError struct {
	ExitCode    int
	CommandLine string
	Stderr      string
	Err         error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("cleartool: exit code wasn't ok, code: %d. Tried to execute: %s", e.ExitCode, e.CommandLine)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsExecutionError reports whether err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}

// CommandError reports a command that cannot be built safely, such as an
// inner argument with a literal newline under setview -exec.
type CommandError struct {
	Arg    string
	Reason string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("cleartool: invalid command argument %q: %s", e.Arg, e.Reason)
}
