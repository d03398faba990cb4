package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/masmgr/clearpoll/internal/loadrule"
	"github.com/masmgr/clearpoll/internal/polling"
)

func TestNewHistoryReportWriter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
	}{
		{name: "Console", format: FormatConsole},
		{name: "JSON", format: FormatJSON},
		{name: "CSV", format: FormatCSV},
		{name: "Markdown", format: FormatMarkdown},
		{name: "CI", format: FormatCI},
		{name: "Unknown defaults to Console", format: "unknown"},
		{name: "Empty defaults to Console", format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := NewHistoryReportWriter(tt.format)
			if writer == nil {
				t.Fatal("NewHistoryReportWriter returned nil")
			}

			var ok bool
			switch tt.format {
			case FormatJSON:
				_, ok = writer.(*JSONHistoryWriter)
			case FormatCSV:
				_, ok = writer.(*CSVHistoryWriter)
			case FormatMarkdown:
				_, ok = writer.(*MarkdownHistoryWriter)
			case FormatCI:
				_, ok = writer.(*CIHistoryWriter)
			default:
				_, ok = writer.(*ConsoleHistoryWriter)
			}
			if !ok {
				t.Errorf("unexpected writer %T for format %q", writer, tt.format)
			}
		})
	}
}

func TestNewPollReportWriter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
	}{
		{name: "Console", format: FormatConsole},
		{name: "JSON", format: FormatJSON},
		{name: "Markdown", format: FormatMarkdown},
		{name: "CI", format: FormatCI},
		{name: "CSV defaults to Console", format: FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := NewPollReportWriter(tt.format)

			var ok bool
			switch tt.format {
			case FormatJSON:
				_, ok = writer.(*JSONPollWriter)
			case FormatMarkdown:
				_, ok = writer.(*MarkdownPollWriter)
			case FormatCI:
				_, ok = writer.(*CIPollWriter)
			default:
				_, ok = writer.(*ConsolePollWriter)
			}
			if !ok {
				t.Errorf("unexpected writer %T for format %q", writer, tt.format)
			}
		})
	}
}

func TestJSONHistoryWriter_Write(t *testing.T) {
	since := loadrule.NewDateMap([]string{"/vob/a", "/vob/b"})
	since.Set("/vob/a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	report := &HistoryReport{
		Source:      "dev_view",
		LoadRules:   []string{"/vob/a", "/vob/b"},
		Since:       since,
		GeneratedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		Entries:     testEntries(),
	}

	tmpFile := t.TempDir() + "/history.json"
	if err := (&JSONHistoryWriter{}).Write(report, OutputOptions{Top: 2, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := readTestFile(tmpFile)
	var got JSONHistoryReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	if got.TotalEntries != 3 || len(got.Entries) != 2 {
		t.Errorf("TotalEntries = %d, entries = %d", got.TotalEntries, len(got.Entries))
	}
	if got.Entries[0].Date != "2024-03-10T11:00:00Z" || len(got.Entries[0].Paths) != 2 {
		t.Errorf("entry[0] = %+v", got.Entries[0])
	}
	if len(got.Since) != 2 || got.Since[0].Date == nil || got.Since[1].Date != nil {
		t.Errorf("since = %+v", got.Since)
	}
}

func TestJSONPollWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/poll.json"
	if err := (&JSONPollWriter{}).Write(testPollReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := readTestFile(tmpFile)
	var got JSONPollReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Decision != "BUILD_NOW" || got.Change != "SIGNIFICANT" || got.QuietPeriodMinutes != 10 {
		t.Errorf("report = %+v", got)
	}
	if len(got.Remote) != 2 || got.Remote[0].Date == nil || *got.Remote[0].Date != "2024-03-10T11:00:00Z" {
		t.Errorf("remote = %+v", got.Remote)
	}
	if got.Pending != nil {
		t.Errorf("settlesAt = %v, expected omitted", *got.Pending)
	}
}

func TestJSONPollWriter_ColdStart(t *testing.T) {
	report := &PollReport{
		LoadRules: []string{"/vob/a"},
		Result:    polling.Result{Change: polling.ChangeSignificant, Reason: polling.ReasonColdStart},
	}

	tmpFile := t.TempDir() + "/cold.json"
	if err := (&JSONPollWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, _ := readTestFile(tmpFile)
	if strings.Contains(string(data), `"remote"`) {
		t.Errorf("remote should be omitted without a fetch:\n%s", data)
	}
}

func TestCSVHistoryWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/history.csv"
	if err := (&CSVHistoryWriter{}).Write(&HistoryReport{Entries: testEntries()}, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := readTestFile(tmpFile)
	content := string(data)
	if !strings.HasPrefix(content, "Date,User,Operation,EventDescription,Version,Comment,Paths\n") {
		t.Errorf("unexpected header:\n%s", content)
	}
	if !strings.Contains(content, "/vob/a/Main.java;/vob/a/Util.java") {
		t.Errorf("paths not joined:\n%s", content)
	}
	// multi-line comment is quoted
	if !strings.Contains(content, "\"fix build | again\nsecond line\"") {
		t.Errorf("comment not quoted:\n%s", content)
	}
}

func TestMarkdownHistoryWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/history.md"
	report := &HistoryReport{Source: "changelog.xml", LoadRules: []string{"/vob/a"}, Entries: testEntries()}
	if err := (&MarkdownHistoryWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := readTestFile(tmpFile)
	content := string(data)
	for _, want := range []string{"# ClearCase History", "**Total Entries:** 3", "fix build \\| again", "`/vob/a/Main.java`<br>`/vob/a/Util.java`"} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
	if strings.Contains(content, "second line") {
		t.Error("comment should be cut at its first line")
	}
}

func TestMarkdownHistoryWriter_Empty(t *testing.T) {
	tmpFile := t.TempDir() + "/empty.md"
	if err := (&MarkdownHistoryWriter{}).Write(&HistoryReport{}, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, _ := readTestFile(tmpFile)
	if !strings.Contains(string(data), "_No changes._") {
		t.Errorf("unexpected output:\n%s", data)
	}
}

func TestMarkdownPollWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/poll.md"
	if err := (&MarkdownPollWriter{}).Write(testPollReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, _ := readTestFile(tmpFile)
	content := string(data)
	for _, want := range []string{"# Poll Result: BUILD_NOW", "**Quiet period:** 10m", "| `/vob/b` | - | - |"} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
}

func TestConsoleWriters_Write(t *testing.T) {
	dir := t.TempDir()

	historyFile := dir + "/history.txt"
	if err := (&ConsoleHistoryWriter{}).Write(&HistoryReport{Source: "dev_view", Entries: testEntries()}, OutputOptions{OutputPath: historyFile}); err != nil {
		t.Fatalf("history Write failed: %v", err)
	}
	data, _ := readTestFile(historyFile)
	if !strings.Contains(string(data), "/vob/a/Main.java (+1)") || !strings.Contains(string(data), "Total entries: 3") {
		t.Errorf("unexpected history output:\n%s", data)
	}

	pollFile := dir + "/poll.txt"
	if err := (&ConsolePollWriter{}).Write(testPollReport(), OutputOptions{OutputPath: pollFile}); err != nil {
		t.Fatalf("poll Write failed: %v", err)
	}
	data, _ = readTestFile(pollFile)
	if !strings.Contains(string(data), "BUILD_NOW") || !strings.Contains(string(data), "2024-03-10 11:00:00") {
		t.Errorf("unexpected poll output:\n%s", data)
	}
}
