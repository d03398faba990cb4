package output

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/masmgr/clearpoll/internal/polling"
)

// ConsoleHistoryWriter writes history reports to the console.
type ConsoleHistoryWriter struct{}

// Write outputs the history report to the console.
func (w *ConsoleHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	color.New(color.FgGreen).Fprintln(out, "ClearCase History")
	fmt.Fprintf(out, "Source: %s\n", report.Source)
	if len(report.LoadRules) > 0 {
		fmt.Fprintf(out, "Load rules: %s\n", strings.Join(report.LoadRules, ", "))
	}
	label, value := sinceLabelAndValue(report.Since)
	fmt.Fprintf(out, "%s: %s\n", label, value)
	fmt.Fprintf(out, "Total entries: %d\n\n", len(report.Entries))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	// Write header
	fmt.Fprintln(tw, "#\tDate\tUser\tOperation\tVersion\tPaths\tComment")

	// Write rows
	for i, e := range entries {
		paths := ""
		if len(e.AffectedPaths) > 0 {
			paths = e.AffectedPaths[0]
			if extra := len(e.AffectedPaths) - 1; extra > 0 {
				paths += fmt.Sprintf(" (+%d)", extra)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			e.Timestamp.Format(reportDateTimeLayout),
			e.Author,
			e.Operation,
			e.VersionID,
			paths,
			truncateMessage(firstLine(e.Comment), commentWidth),
		)
	}

	return tw.Flush()
}

// ConsolePollWriter writes poll reports to the console.
type ConsolePollWriter struct{}

// Write outputs the poll report to the console.
func (w *ConsolePollWriter) Write(report *PollReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	res := report.Result
	decisionColor := getDecisionColor(res.Decision())
	fmt.Fprintf(out, "%s (%s)\n", decisionColor("%s", res.Decision()), res.Reason)
	fmt.Fprintf(out, "Quiet period: %s\n", durationLabel(report.QuietPeriod))
	if !res.Pending.IsZero() {
		fmt.Fprintf(out, "Settles at: %s\n", res.Pending.Format(reportDateTimeLayout))
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Load rule\tBaseline\tRemote")
	for _, lr := range report.LoadRules {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", lr, watermarkCell(res.Baseline, lr), watermarkCell(res.Remote, lr))
	}
	return tw.Flush()
}

func watermarkCell(s *polling.RevisionState, loadRule string) string {
	t, ok := s.Dates().Get(loadRule)
	if !ok {
		return "-"
	}
	return t.Format(reportDateTimeLayout)
}

// Helper functions

func getDecisionColor(d polling.Decision) func(string, ...interface{}) string {
	if d == polling.DecisionBuildNow {
		return color.YellowString
	}
	return color.GreenString
}

// durationLabel renders a duration without trailing zero units.
func durationLabel(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}
