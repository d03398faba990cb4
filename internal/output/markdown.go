package output

import (
	"fmt"
	"strings"
)

// MarkdownHistoryWriter writes history reports as Markdown.
type MarkdownHistoryWriter struct{}

// Write outputs the history report as Markdown.
func (w *MarkdownHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	// Header
	fmt.Fprintln(out, "# ClearCase History")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Source:** %s\n\n", escapeMarkdown(report.Source))
	if len(report.LoadRules) > 0 {
		rules := make([]string, len(report.LoadRules))
		for i, lr := range report.LoadRules {
			rules[i] = "`" + lr + "`"
		}
		fmt.Fprintf(out, "**Load rules:** %s\n\n", strings.Join(rules, ", "))
	}
	label, value := sinceLabelAndValue(report.Since)
	fmt.Fprintf(out, "**%s:** %s\n\n", label, escapeMarkdown(value))
	fmt.Fprintf(out, "**Total Entries:** %d\n\n", len(report.Entries))

	if len(entries) == 0 {
		fmt.Fprintln(out, "_No changes._")
		return nil
	}

	// Table
	fmt.Fprintln(out, "| # | Date | User | Operation | Version | Paths | Comment |")
	fmt.Fprintln(out, "|---|------|------|-----------|---------|-------|---------|")
	for i, e := range entries {
		paths := make([]string, len(e.AffectedPaths))
		for j, p := range e.AffectedPaths {
			paths[j] = "`" + p + "`"
		}
		fmt.Fprintf(out, "| %d | %s | %s | %s | `%s` | %s | %s |\n",
			i+1,
			e.Timestamp.Format(reportDateTimeLayout),
			escapeMarkdown(e.Author),
			escapeMarkdown(e.Operation),
			e.VersionID,
			strings.Join(paths, "<br>"),
			escapeMarkdown(truncateMessage(firstLine(e.Comment), commentWidth)),
		)
	}

	return nil
}

// MarkdownPollWriter writes poll reports as Markdown.
type MarkdownPollWriter struct{}

// Write outputs the poll report as Markdown.
func (w *MarkdownPollWriter) Write(report *PollReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	res := report.Result
	fmt.Fprintf(out, "# Poll Result: %s\n\n", res.Decision())
	fmt.Fprintf(out, "**Reason:** %s\n\n", res.Reason)
	fmt.Fprintf(out, "**Quiet period:** %s\n\n", durationLabel(report.QuietPeriod))
	if !res.Pending.IsZero() {
		fmt.Fprintf(out, "**Settles at:** %s\n\n", res.Pending.Format(reportDateTimeLayout))
	}

	fmt.Fprintln(out, "| Load rule | Baseline | Remote |")
	fmt.Fprintln(out, "|-----------|----------|--------|")
	for _, lr := range report.LoadRules {
		fmt.Fprintf(out, "| `%s` | %s | %s |\n", lr, watermarkCell(res.Baseline, lr), watermarkCell(res.Remote, lr))
	}
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
