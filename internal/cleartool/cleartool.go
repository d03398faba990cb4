package cleartool

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ClearTool runs repository queries through the cleartool CLI.
type ClearTool struct {
	opts   Options
	runner Runner
	logger *log.Logger
}

// New creates a ClearTool. A nil runner uses ExecRunner with opts.Timeout and
// a nil logger discards diagnostics.
func New(opts Options, runner Runner, logger *log.Logger) *ClearTool {
	opts.ViewName = strings.TrimSpace(opts.ViewName)
	if runner == nil {
		runner = ExecRunner{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ClearTool{opts: opts, runner: runner, logger: logger}
}

// Options returns the options the ClearTool was created with.
func (ct *ClearTool) Options() Options {
	return ct.opts
}

// Lshistory returns the raw lshistory output for one load rule. With a nil
// since the query is bounded by -last N instead of a date.
func (ct *ClearTool) Lshistory(ctx context.Context, loadRule string, since *time.Time) ([]byte, error) {
	args := lshistoryArgs(loadRule, since, ct.opts.LastNumEvents, ct.opts.location())
	ct.logger.Debug("lshistory", "loadRule", loadRule, "since", since)
	return ct.execute(ctx, args, ct.opts.ViewName != "")
}

// ViewExists reports whether cleartool knows a view tag. A nonzero exit from
// lsview means the view does not exist; launch failures are returned.
func (ct *ClearTool) ViewExists(ctx context.Context, name string) (bool, error) {
	_, err := ct.execute(ctx, []string{cmdLsview, name}, false)
	return existsResult(err)
}

// PathExists reports whether loadRule resolves to an element, evaluated
// inside the configured view when there is one.
func (ct *ClearTool) PathExists(ctx context.Context, loadRule string) (bool, error) {
	_, err := ct.execute(ctx, []string{cmdDescribe, paramShort, loadRule}, ct.opts.ViewName != "")
	return existsResult(err)
}

// Command returns the full argument vector, executable first, that would run
// args, wrapped in setview -exec when needsView is set.
func (ct *ClearTool) Command(args []string, needsView bool) ([]string, error) {
	exe := ct.opts.executable()
	if !needsView {
		return append([]string{exe}, args...), nil
	}
	wrapped, err := wrapInView(exe, ct.opts.ViewName, args)
	if err != nil {
		return nil, err
	}
	return append([]string{exe}, wrapped...), nil
}

func (ct *ClearTool) execute(ctx context.Context, args []string, needsView bool) ([]byte, error) {
	argv, err := ct.Command(args, needsView)
	if err != nil {
		return nil, err
	}

	out, err := ct.runner.Run(ctx, ct.opts.WorkDir, argv[0], argv[1:]...)
	if err != nil {
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			ct.logger.Error("cleartool failed", "exitCode", execErr.ExitCode, "command", execErr.CommandLine)
			return nil, err
		}
		// Runners outside this package may return plain errors.
		return nil, &ExecutionError{ExitCode: -1, CommandLine: QuoteCommandLine(argv), Err: err}
	}
	return out, nil
}

func existsResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return false, nil
	}
	return false, err
}
