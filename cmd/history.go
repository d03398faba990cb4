package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/config"
	"github.com/masmgr/clearpoll/internal/changelog"
	"github.com/masmgr/clearpoll/internal/history"
	"github.com/masmgr/clearpoll/internal/output"
)

// HistoryCmd returns the history command.
func HistoryCmd() *cli.Command {
	flags := append(commonFlags(), outputFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "from-changelog",
			Usage: "Read entries from a changelog file instead of querying the repository",
		},
		&cli.BoolFlag{
			Name:  "since-state",
			Usage: "Only query changes after the stored state",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Entry order (ascending, descending)",
		},
	)

	return &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List repository history entries",
		Flags:   flags,
		Action:  historyAction,
	}
}

func historyAction(c *cli.Context) error {
	var (
		report *output.HistoryReport
		err    error
	)
	if path := c.String("from-changelog"); path != "" {
		cfg, cfgErr := loadConfig(c)
		if cfgErr != nil {
			return cfgErr
		}
		report, err = historyFromChangelog(cfg, path, c.String("order"))
	} else {
		cc, ccErr := NewCommandContext(c)
		if ccErr != nil {
			return ccErr
		}
		report, err = runHistory(c.Context, cc, c.Bool("since-state"), c.String("order"))
	}
	if err != nil {
		return err
	}
	return writeHistoryReport(c, report)
}

// runHistory queries the configured load rules, optionally bounded by the
// stored state.
func runHistory(ctx context.Context, cc *CommandContext, sinceState bool, orderName string) (*output.HistoryReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	order, err := resolveOrder(cc.Config, orderName)
	if err != nil {
		return nil, err
	}

	report := &output.HistoryReport{
		Source:    cc.Source(),
		LoadRules: cc.LoadRules,
	}
	if sinceState {
		stored, err := cc.Store.Load()
		if err != nil {
			return nil, err
		}
		report.Since = stored.Dates()
	}

	entries, err := cc.Fetcher.Fetch(ctx, cc.LoadRules, report.Since)
	if err != nil {
		return nil, err
	}
	report.Entries = changelog.Sort(entries, order)
	report.GeneratedAt = time.Now()
	return report, nil
}

// historyFromChangelog reads a changelog and applies the configured path
// filters to it. No repository query is made.
func historyFromChangelog(cfg *config.Config, path, orderName string) (*output.HistoryReport, error) {
	order, err := resolveOrder(cfg, orderName)
	if err != nil {
		return nil, err
	}

	entries, err := changelog.ReadFile(path)
	if err != nil {
		return nil, err
	}

	filter, err := history.NewPathFilter(cfg.Filters.Include, cfg.Filters.Exclude)
	if err != nil {
		return nil, err
	}
	entries, err = filter.Apply(entries)
	if err != nil {
		return nil, err
	}

	return &output.HistoryReport{
		Source:      path,
		LoadRules:   cfg.LoadRules,
		GeneratedAt: time.Now(),
		Entries:     changelog.Sort(entries, order),
	}, nil
}

// resolveOrder prefers the flag value over the configured changelog order.
func resolveOrder(cfg *config.Config, flagValue string) (changelog.Order, error) {
	if flagValue != "" {
		return changelog.ParseOrder(flagValue)
	}
	return changelog.ParseOrder(cfg.ChangeLog.Order)
}
