package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/masmgr/clearpoll/internal/cleartool"
)

// CIHistoryWriter writes history reports as NDJSON (one JSON object per line) for CI pipelines.
type CIHistoryWriter struct{}

// CIHistorySummary is the first line of CI history output.
type CIHistorySummary struct {
	Type         string `json:"type"`
	TotalEntries int    `json:"totalEntries"`
	Authors      int    `json:"authors"`
	Paths        int    `json:"paths"`
	Latest       string `json:"latest,omitempty"`
}

// CIHistoryEntry represents a single entry in CI output.
type CIHistoryEntry struct {
	Type      string   `json:"type"`
	Date      string   `json:"date"`
	User      string   `json:"user"`
	Operation string   `json:"operation"`
	Version   string   `json:"version"`
	Paths     []string `json:"paths"`
}

// Write outputs the history report as NDJSON.
func (w *CIHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	authors := make(map[string]struct{})
	paths := make(map[string]struct{})
	summary := CIHistorySummary{Type: "summary", TotalEntries: len(entries)}
	for _, e := range entries {
		authors[e.Author] = struct{}{}
		for _, p := range e.AffectedPaths {
			paths[p] = struct{}{}
		}
	}
	summary.Authors = len(authors)
	summary.Paths = len(paths)
	if latest, ok := cleartool.Latest(entries); ok {
		summary.Latest = formatTime(latest)
	}

	// Write summary line
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	// Write entries
	for _, e := range entries {
		line := CIHistoryEntry{
			Type:      "entry",
			Date:      formatTime(e.Timestamp),
			User:      e.Author,
			Operation: e.Operation,
			Version:   e.VersionID,
			Paths:     e.AffectedPaths,
		}
		if err := writeNDJSONLine(out, line); err != nil {
			return err
		}
	}

	return nil
}

// CIPollWriter writes poll reports as NDJSON: a decision line followed by
// one line per load rule.
type CIPollWriter struct{}

// CIPollDecision is the first line of CI poll output.
type CIPollDecision struct {
	Type     string `json:"type"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// CIPollLoadRule reports one load rule of a poll.
type CIPollLoadRule struct {
	Type     string  `json:"type"`
	LoadRule string  `json:"loadRule"`
	Baseline *string `json:"baseline"`
	Remote   *string `json:"remote"`
}

// Write outputs the poll report as NDJSON.
func (w *CIPollWriter) Write(report *PollReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	res := report.Result
	if err := writeNDJSONLine(out, CIPollDecision{
		Type:     "decision",
		Decision: string(res.Decision()),
		Reason:   string(res.Reason),
	}); err != nil {
		return err
	}

	baseline := watermarks(report.LoadRules, res.Baseline.Dates())
	remote := watermarks(report.LoadRules, res.Remote.Dates())
	for i, lr := range report.LoadRules {
		if err := writeNDJSONLine(out, CIPollLoadRule{
			Type:     "loadRule",
			LoadRule: lr,
			Baseline: baseline[i].Date,
			Remote:   remote[i].Date,
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
