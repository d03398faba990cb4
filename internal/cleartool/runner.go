package cleartool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed.
const waitDelay = 2 * time.Second

// Runner spawns an external process and returns its stdout.
// Implementations must return an *ExecutionError for nonzero exits.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero disables the bound.
	Timeout time.Duration
}

// Run executes name with args in dir and captures stdout. Stderr is kept
// separately and attached to the error on failure.
func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	execErr := &ExecutionError{
		ExitCode:    -1,
		CommandLine: QuoteCommandLine(append([]string{name}, args...)),
		Stderr:      strings.TrimSpace(stderr.String()),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Err = ctxErr
		return nil, execErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
		return nil, execErr
	}

	execErr.Err = err
	return nil, execErr
}

// Compile-time interface conformance check.
var _ Runner = ExecRunner{}
