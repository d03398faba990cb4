package polling

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/masmgr/clearpoll/internal/history"
)

// DefaultQuietPeriod is the time a change must have settled before it
// triggers a build.
const DefaultQuietPeriod = 10 * time.Minute

// Change classifies the outcome of a polling cycle.
type Change string

const (
	ChangeNone        Change = "NONE"
	ChangeSignificant Change = "SIGNIFICANT"
)

// Decision is the outcome reported to the build host.
type Decision string

const (
	DecisionBuildNow  Decision = "BUILD_NOW"
	DecisionNoChanges Decision = "NO_CHANGES"
)

// Reason explains how a polling cycle reached its classification.
type Reason string

const (
	ReasonColdStart   Reason = "no baseline"
	ReasonNothingNew  Reason = "no remote history"
	ReasonQuietPeriod Reason = "within quiet period"
	ReasonNewer       Reason = "remote is ahead of baseline"
	ReasonUpToDate    Reason = "baseline is up to date"
)

// Result is the outcome of one polling cycle.
type Result struct {
	Change   Change
	Baseline *RevisionState
	Remote   *RevisionState // nil when no remote fetch happened
	Reason   Reason
	// Pending is when every remote change will have settled, set only for
	// ReasonQuietPeriod.
	Pending time.Time
}

// BuildNow reports whether the cycle asks for a build.
func (r Result) BuildNow() bool {
	return r.Change == ChangeSignificant
}

// Decision maps the classification to the host outcome.
func (r Result) Decision() Decision {
	if r.BuildNow() {
		return DecisionBuildNow
	}
	return DecisionNoChanges
}

// PollDecision decides whether the repository moved past a baseline.
type PollDecision interface {
	Poll(ctx context.Context, baseline *RevisionState) (Result, error)
}

// Engine implements PollDecision over a HistoryFetcher.
type Engine struct {
	fetcher     history.HistoryFetcher
	loadRules   []string
	quietPeriod time.Duration
	now         func() time.Time
	logger      *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithQuietPeriod overrides DefaultQuietPeriod. Zero disables the guard.
func WithQuietPeriod(d time.Duration) Option {
	return func(e *Engine) { e.quietPeriod = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine watching loadRules.
func NewEngine(fetcher history.HistoryFetcher, loadRules []string, opts ...Option) *Engine {
	e := &Engine{
		fetcher:     fetcher,
		loadRules:   append([]string(nil), loadRules...),
		quietPeriod: DefaultQuietPeriod,
		now:         time.Now,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Poll compares the remote repository state against baseline.
//
// A missing or empty baseline always asks for a build. Otherwise every load
// rule is queried from its baseline watermark. No build is requested when
// nothing came back, or when any remote change is younger than the quiet
// period. A build is requested when some load rule moved past its baseline.
// Fetch failures are returned as errors.
func (e *Engine) Poll(ctx context.Context, baseline *RevisionState) (Result, error) {
	if baseline.IsEmpty() {
		e.logger.Info("no baseline, requesting build")
		return Result{Change: ChangeSignificant, Baseline: baseline, Reason: ReasonColdStart}, nil
	}

	since := baseline.Dates()
	remoteDates, err := e.fetcher.LatestDates(ctx, e.loadRules, since)
	if err != nil {
		return Result{}, fmt.Errorf("poll: %w", err)
	}
	remote := NewRevisionState("", remoteDates)

	e.logger.Debug("compared dates", "baseline", since.String(), "remote", remoteDates.String())

	if remoteDates.IsEmpty() {
		return Result{Change: ChangeNone, Baseline: baseline, Remote: remote, Reason: ReasonNothingNew}, nil
	}

	now := e.now()
	var pending time.Time
	for _, t := range remoteDates.Dates() {
		settled := t.Add(e.quietPeriod)
		if !settled.Before(now) && (pending.IsZero() || settled.After(pending)) {
			pending = settled
		}
	}
	if !pending.IsZero() {
		e.logger.Info("changes within quiet period", "quietPeriod", e.quietPeriod, "until", pending)
		return Result{Change: ChangeNone, Baseline: baseline, Remote: remote, Reason: ReasonQuietPeriod, Pending: pending}, nil
	}

	if since.IsBefore(remoteDates) {
		e.logger.Info("remote is ahead of baseline")
		return Result{Change: ChangeSignificant, Baseline: baseline, Remote: remote, Reason: ReasonNewer}, nil
	}
	return Result{Change: ChangeNone, Baseline: baseline, Remote: remote, Reason: ReasonUpToDate}, nil
}

// Compile-time interface conformance check.
var _ PollDecision = (*Engine)(nil)
