package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/internal/output"
)

func writeHistoryReport(c *cli.Context, report *output.HistoryReport) error {
	opts := OutputOptions(c)
	writer := output.NewHistoryReportWriter(opts.Format)
	return writer.Write(report, opts)
}

func writePollReport(c *cli.Context, report *output.PollReport) error {
	opts := OutputOptions(c)
	writer := output.NewPollReportWriter(opts.Format)
	return writer.Write(report, opts)
}
