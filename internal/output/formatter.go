package output

import (
	"time"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
	"github.com/masmgr/clearpoll/internal/polling"
)

// Compile-time interface conformance checks.
// These ensure that all writer types correctly implement their respective interfaces.
var (
	// HistoryReportWriter implementations
	_ HistoryReportWriter = (*ConsoleHistoryWriter)(nil)
	_ HistoryReportWriter = (*JSONHistoryWriter)(nil)
	_ HistoryReportWriter = (*CSVHistoryWriter)(nil)
	_ HistoryReportWriter = (*MarkdownHistoryWriter)(nil)
	_ HistoryReportWriter = (*CIHistoryWriter)(nil)

	// PollReportWriter implementations
	_ PollReportWriter = (*ConsolePollWriter)(nil)
	_ PollReportWriter = (*JSONPollWriter)(nil)
	_ PollReportWriter = (*MarkdownPollWriter)(nil)
	_ PollReportWriter = (*CIPollWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// HistoryReport holds history entries fetched from the repository or read
// from a changelog.
type HistoryReport struct {
	Source      string // view name, "(no view)" or the changelog path
	LoadRules   []string
	Since       *loadrule.DateMap // nil for cold queries and changelog reads
	GeneratedAt time.Time
	Entries     []cleartool.HistoryEntry
}

// PollReport holds the outcome of one polling cycle.
type PollReport struct {
	LoadRules   []string
	QuietPeriod time.Duration
	GeneratedAt time.Time
	Result      polling.Result
}

// HistoryReportWriter writes history reports.
type HistoryReportWriter interface {
	Write(report *HistoryReport, options OutputOptions) error
}

// PollReportWriter writes poll reports.
type PollReportWriter interface {
	Write(report *PollReport, options OutputOptions) error
}

// NewHistoryReportWriter creates a report writer for the specified format.
func NewHistoryReportWriter(format OutputFormat) HistoryReportWriter {
	switch format {
	case FormatJSON:
		return &JSONHistoryWriter{}
	case FormatCSV:
		return &CSVHistoryWriter{}
	case FormatMarkdown:
		return &MarkdownHistoryWriter{}
	case FormatCI:
		return &CIHistoryWriter{}
	default:
		return &ConsoleHistoryWriter{}
	}
}

// NewPollReportWriter creates a poll report writer for the specified format.
// CSV has no poll layout and falls back to console.
func NewPollReportWriter(format OutputFormat) PollReportWriter {
	switch format {
	case FormatJSON:
		return &JSONPollWriter{}
	case FormatMarkdown:
		return &MarkdownPollWriter{}
	case FormatCI:
		return &CIPollWriter{}
	default:
		return &ConsolePollWriter{}
	}
}
