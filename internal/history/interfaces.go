package history

import (
	"context"
	"time"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
)

// HistoryFetcher retrieves repository history per load rule.
// This abstraction lets the polling engine and commands run without cleartool.
type HistoryFetcher interface {
	// Fetch returns the entries of every load rule, each queried from its
	// watermark in since (or the last N events when unset), in load rule order.
	Fetch(ctx context.Context, loadRules []string, since *loadrule.DateMap) ([]cleartool.HistoryEntry, error)

	// LatestDates returns the remote watermark of every load rule, queried
	// from its watermark in since.
	LatestDates(ctx context.Context, loadRules []string, since *loadrule.DateMap) (*loadrule.DateMap, error)
}

// Source runs the raw history query for one load rule.
type Source interface {
	Lshistory(ctx context.Context, loadRule string, since *time.Time) ([]byte, error)
}

// Compile-time interface conformance checks.
var (
	_ HistoryFetcher = (*Fetcher)(nil)
	_ Source         = (*cleartool.ClearTool)(nil)
)
