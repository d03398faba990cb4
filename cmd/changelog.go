package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/internal/changelog"
	"github.com/masmgr/clearpoll/internal/loadrule"
	"github.com/masmgr/clearpoll/internal/polling"
)

// ChangelogCmd returns the changelog command.
func ChangelogCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:  "changelog",
			Usage: "Path of the changelog to write",
		},
		&cli.StringFlag{
			Name:  "previous",
			Usage: "Changelog of the previous build, used instead of the stored state as the starting point",
		},
		&cli.StringFlag{
			Name:  "build-id",
			Usage: "Identifier recorded with the new state (default: random UUID)",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Entry order (ascending, descending)",
		},
	)

	return &cli.Command{
		Name:    "changelog",
		Aliases: []string{"cl"},
		Usage:   "Write the changes since the previous build and record the new state",
		Flags:   flags,
		Action:  changelogAction,
	}
}

// changelogRequest holds the inputs of one changelog run.
type changelogRequest struct {
	Path     string
	Previous string
	BuildID  string
	Order    changelog.Order
}

// changelogResult reports what a changelog run wrote.
type changelogResult struct {
	Entries    int
	Prior      *loadrule.DateMap
	State      *polling.RevisionState
	StateSaved bool
}

func changelogAction(c *cli.Context) error {
	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	if path := c.String("changelog"); path != "" {
		cc.Config.ChangeLog.Path = path
	}
	if order := c.String("order"); order != "" {
		cc.Config.ChangeLog.Order = order
	}
	order, err := changelog.ParseOrder(cc.Config.ChangeLog.Order)
	if err != nil {
		return err
	}

	req := changelogRequest{
		Path:     cc.Config.ChangeLog.Path,
		Previous: c.String("previous"),
		BuildID:  c.String("build-id"),
		Order:    order,
	}
	res, err := runChangelog(c.Context, cc, req)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("Wrote %d entries to %s\n", res.Entries, req.Path)
	if res.StateSaved {
		fmt.Printf("State %s saved to %s\n", res.State.BuildID(), cc.Store.Path())
	} else {
		fmt.Println("No new changes, state left unchanged.")
	}
	return nil
}

// runChangelog fetches the history since the prior watermarks, drops the
// entries already reported at the watermark boundary and writes the rest.
// When nothing new was found the stored state is kept, and a cold start
// with no watermarks to carry records no state at all.
func runChangelog(ctx context.Context, cc *CommandContext, req changelogRequest) (*changelogResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stored, err := cc.Store.Load()
	if err != nil {
		return nil, err
	}

	prior, err := priorDates(cc, stored, req.Previous)
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("collecting changes", "source", cc.Source(), "since", prior.String())

	entries, err := cc.Fetcher.Fetch(ctx, cc.LoadRules, prior)
	if err != nil {
		return nil, err
	}
	entries = loadrule.RemoveAlreadySeen(entries, prior, cc.LoadRules)

	if err := changelog.WriteFile(req.Path, changelog.Sort(entries, req.Order)); err != nil {
		return nil, err
	}

	res := &changelogResult{Entries: len(entries), Prior: prior, State: stored}
	if len(entries) == 0 && (stored != nil || prior.IsEmpty()) {
		return res, nil
	}

	res.State = polling.StateFromChangeLog(req.BuildID, entries, cc.LoadRules, prior)
	if err := cc.Store.Save(res.State); err != nil {
		return nil, err
	}
	res.StateSaved = true
	cc.Logger.Info("recorded state", "buildId", res.State.BuildID(), "dates", res.State.Dates().String())
	return res, nil
}

// priorDates returns the watermarks a changelog run starts from: those of
// the previous changelog when one is given and exists, else the stored state.
func priorDates(cc *CommandContext, stored *polling.RevisionState, previous string) (*loadrule.DateMap, error) {
	if previous != "" {
		entries, err := changelog.ReadFile(previous)
		switch {
		case err == nil:
			return loadrule.LatestPerLoadRule(entries, cc.LoadRules), nil
		case errors.Is(err, os.ErrNotExist):
			cc.Logger.Warn("previous changelog not found", "path", previous)
		default:
			return nil, err
		}
	}
	return stored.Dates(), nil
}
