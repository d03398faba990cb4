package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/config"
	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/history"
	"github.com/masmgr/clearpoll/internal/loadrule"
	"github.com/masmgr/clearpoll/internal/output"
	"github.com/masmgr/clearpoll/internal/state"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across all commands that query
// the repository.
type CommandContext struct {
	Config    *config.Config
	Logger    *log.Logger
	LoadRules []string
	Location  *time.Location
	ClearTool *cleartool.ClearTool
	Fetcher   *history.Fetcher
	Store     *state.Store
}

// NewCommandContext creates a context from CLI flags.
// It performs configuration loading, load rule validation and wiring of the
// cleartool executor, parser and fetcher.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return newCommandContext(cfg, nil)
}

// newCommandContext wires the components for cfg. A nil runner spawns real
// cleartool processes.
func newCommandContext(cfg *config.Config, runner cleartool.Runner) (*CommandContext, error) {
	logger := newLogger(cfg.Logging, os.Stderr)

	if err := loadrule.Validate(cfg.LoadRules); err != nil {
		return nil, err
	}

	loc, err := cfg.ClearTool.Location()
	if err != nil {
		return nil, err
	}

	charset, err := cfg.ClearTool.Encoding()
	if err != nil {
		return nil, err
	}

	filter, err := history.NewPathFilter(cfg.Filters.Include, cfg.Filters.Exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}

	ct := cleartool.New(cleartool.Options{
		Executable:    cfg.ClearTool.Executable,
		ViewName:      cfg.ClearTool.ViewName,
		WorkDir:       cfg.ClearTool.WorkDir,
		Location:      loc,
		LastNumEvents: cfg.ClearTool.LastNumEvents,
		Timeout:       cfg.ClearTool.CommandTimeout(),
	}, runner, logger)

	fetcher := history.NewFetcher(ct, cleartool.NewParser(loc, logger).WithCharset(charset), history.FetchOptions{
		Filter:      filter,
		Concurrency: cfg.ClearTool.Concurrency,
	}, logger)

	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		LoadRules: cfg.LoadRules,
		Location:  loc,
		ClearTool: ct,
		Fetcher:   fetcher,
		Store:     state.NewStore(cfg.State.Path),
	}, nil
}

// Source describes where queries run, for report headers.
func (ctx *CommandContext) Source() string {
	if view := ctx.ClearTool.Options().ViewName; view != "" {
		return view
	}
	return "(no view)"
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     getOutputFormat(c.String("format")),
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
	}
}
