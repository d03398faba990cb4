package history

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
)

// FetchOptions configures a Fetcher.
type FetchOptions struct {
	Filter      *PathFilter // nil accepts every path
	Concurrency int         // parallel load rule queries, values below 2 run sequentially
}

// Fetcher queries history per load rule through a Source and parses it.
type Fetcher struct {
	source Source
	parser *cleartool.Parser
	opts   FetchOptions
	logger *log.Logger
}

// NewFetcher creates a fetcher. A nil logger discards diagnostics.
func NewFetcher(source Source, parser *cleartool.Parser, opts FetchOptions, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if parser == nil {
		parser = cleartool.NewParser(nil, logger)
	}
	return &Fetcher{source: source, parser: parser, opts: opts, logger: logger}
}

// FetchLoadRule queries and parses the history of one load rule.
func (f *Fetcher) FetchLoadRule(ctx context.Context, loadRule string, since *loadrule.DateMap) ([]cleartool.HistoryEntry, error) {
	raw, err := f.source.Lshistory(ctx, loadRule, since.Since(loadRule))
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", loadRule, err)
	}

	entries := f.parser.Parse(raw)
	entries, err = f.opts.Filter.Apply(entries)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched history", "loadRule", loadRule, "entries", len(entries))
	return entries, nil
}

// Fetch implements HistoryFetcher.
func (f *Fetcher) Fetch(ctx context.Context, loadRules []string, since *loadrule.DateMap) ([]cleartool.HistoryEntry, error) {
	perRule, err := f.fetchAll(ctx, loadRules, since)
	if err != nil {
		return nil, err
	}

	var all []cleartool.HistoryEntry
	for _, entries := range perRule {
		all = append(all, entries...)
	}
	return all, nil
}

// LatestDates implements HistoryFetcher. Each load rule takes the latest
// timestamp of its own query result; rules without results stay unset.
func (f *Fetcher) LatestDates(ctx context.Context, loadRules []string, since *loadrule.DateMap) (*loadrule.DateMap, error) {
	perRule, err := f.fetchAll(ctx, loadRules, since)
	if err != nil {
		return nil, err
	}

	remote := loadrule.NewDateMap(loadRules)
	for i, lr := range loadRules {
		if latest, ok := cleartool.Latest(perRule[i]); ok {
			remote.Set(lr, latest)
		}
	}
	return remote, nil
}

// fetchAll queries every load rule and returns results indexed like loadRules.
func (f *Fetcher) fetchAll(ctx context.Context, loadRules []string, since *loadrule.DateMap) ([][]cleartool.HistoryEntry, error) {
	results := make([][]cleartool.HistoryEntry, len(loadRules))

	if f.opts.Concurrency < 2 || len(loadRules) < 2 {
		for i, lr := range loadRules {
			entries, err := f.FetchLoadRule(ctx, lr, since)
			if err != nil {
				return nil, err
			}
			results[i] = entries
		}
		return results, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for i, lr := range loadRules {
		i, lr := i, lr
		g.Go(func() error {
			entries, err := f.FetchLoadRule(gCtx, lr, since)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
