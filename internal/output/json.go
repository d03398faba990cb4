package output

import (
	"encoding/json"
	"fmt"

	"github.com/masmgr/clearpoll/internal/loadrule"
)

// JSONHistoryWriter writes history reports as JSON.
type JSONHistoryWriter struct{}

// JSONHistoryReport is the JSON output structure for a history report.
type JSONHistoryReport struct {
	Source       string             `json:"source"`
	LoadRules    []string           `json:"loadRules"`
	Since        []JSONWatermark    `json:"since,omitempty"`
	GeneratedAt  string             `json:"generatedAt"`
	TotalEntries int                `json:"totalEntries"`
	Entries      []JSONHistoryEntry `json:"entries"`
}

// JSONWatermark is one load rule watermark.
type JSONWatermark struct {
	LoadRule string  `json:"loadRule"`
	Date     *string `json:"date"`
}

// JSONHistoryEntry is the JSON output structure for a single history entry.
type JSONHistoryEntry struct {
	Date             string   `json:"date"`
	User             string   `json:"user"`
	Operation        string   `json:"operation"`
	EventDescription string   `json:"eventDescription"`
	Version          string   `json:"version"`
	Comment          string   `json:"comment"`
	Paths            []string `json:"paths"`
}

// Write outputs the history report as JSON.
func (w *JSONHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	jsonEntries := make([]JSONHistoryEntry, len(entries))
	for i, e := range entries {
		jsonEntries[i] = JSONHistoryEntry{
			Date:             formatTime(e.Timestamp),
			User:             e.Author,
			Operation:        e.Operation,
			EventDescription: e.EventDescription,
			Version:          e.VersionID,
			Comment:          e.Comment,
			Paths:            e.AffectedPaths,
		}
	}

	out := JSONHistoryReport{
		Source:       report.Source,
		LoadRules:    report.LoadRules,
		GeneratedAt:  formatTime(report.GeneratedAt),
		TotalEntries: len(report.Entries),
		Entries:      jsonEntries,
	}
	if !report.Since.IsEmpty() {
		out.Since = watermarks(report.Since.LoadRules(), report.Since)
	}
	if out.LoadRules == nil {
		out.LoadRules = []string{}
	}

	return writeJSON(out, options.OutputPath)
}

// JSONPollWriter writes poll reports as JSON.
type JSONPollWriter struct{}

// JSONPollReport is the JSON output structure for a poll report.
type JSONPollReport struct {
	Decision           string          `json:"decision"`
	Change             string          `json:"change"`
	Reason             string          `json:"reason"`
	QuietPeriodMinutes float64         `json:"quietPeriodMinutes"`
	Pending            *string         `json:"settlesAt,omitempty"`
	GeneratedAt        string          `json:"generatedAt"`
	Baseline           []JSONWatermark `json:"baseline"`
	Remote             []JSONWatermark `json:"remote,omitempty"`
}

// Write outputs the poll report as JSON.
func (w *JSONPollWriter) Write(report *PollReport, options OutputOptions) error {
	res := report.Result
	out := JSONPollReport{
		Decision:           string(res.Decision()),
		Change:             string(res.Change),
		Reason:             string(res.Reason),
		QuietPeriodMinutes: report.QuietPeriod.Minutes(),
		Pending:            formatOptionalTime(res.Pending),
		GeneratedAt:        formatTime(report.GeneratedAt),
		Baseline:           watermarks(report.LoadRules, res.Baseline.Dates()),
	}
	if res.Remote != nil {
		out.Remote = watermarks(report.LoadRules, res.Remote.Dates())
	}

	return writeJSON(out, options.OutputPath)
}

func watermarks(loadRules []string, dates *loadrule.DateMap) []JSONWatermark {
	items := make([]JSONWatermark, len(loadRules))
	for i, lr := range loadRules {
		items[i] = JSONWatermark{LoadRule: lr}
		if t, ok := dates.Get(lr); ok {
			items[i].Date = formatOptionalTime(t)
		}
	}
	return items
}

func writeJSON(v interface{}, outputPath string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
