package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/internal/output"
	"github.com/masmgr/clearpoll/internal/polling"
)

// exitNoChanges is the process exit code of poll --exit-code when no build
// is needed.
const exitNoChanges = 3

// PollCmd returns the poll command.
func PollCmd() *cli.Command {
	return &cli.Command{
		Name:    "poll",
		Aliases: []string{"p"},
		Usage:   "Decide whether new repository activity warrants a build",
		Flags:   pollFlags(),
		Action:  pollAction,
	}
}

func pollFlags() []cli.Flag {
	flags := append(commonFlags(), outputFlags()...)
	return append(flags,
		&cli.IntFlag{
			Name:  "quiet-period",
			Usage: "Minutes a change must have settled before it triggers a build",
		},
		&cli.BoolFlag{
			Name:  "exit-code",
			Usage: "Exit with 0 when a build is needed and 3 otherwise",
		},
	)
}

func pollAction(c *cli.Context) error {
	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	report, err := runPoll(c.Context, cc, time.Now)
	if err != nil {
		return err
	}

	if err := writePollReport(c, report); err != nil {
		return err
	}

	if c.Bool("exit-code") && !report.Result.BuildNow() {
		return cli.Exit("", exitNoChanges)
	}
	return nil
}

// runPoll loads the stored baseline and runs one polling cycle against it.
func runPoll(ctx context.Context, cc *CommandContext, now func() time.Time) (*output.PollReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	baseline, err := cc.Store.Load()
	if err != nil {
		return nil, err
	}

	quiet := cc.Config.Polling.QuietPeriod()
	engine := polling.NewEngine(cc.Fetcher, cc.LoadRules,
		polling.WithQuietPeriod(quiet),
		polling.WithClock(now),
		polling.WithLogger(cc.Logger),
	)

	cc.Logger.Debug("polling", "source", cc.Source(), "baseline", baseline.String())
	result, err := engine.Poll(ctx, baseline)
	if err != nil {
		return nil, err
	}

	return &output.PollReport{
		LoadRules:   cc.LoadRules,
		QuietPeriod: quiet,
		GeneratedAt: now(),
		Result:      result,
	}, nil
}
