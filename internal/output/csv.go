package output

import (
	"encoding/csv"
	"os"
	"strings"
)

// CSVHistoryWriter writes history reports as CSV, one row per entry.
type CSVHistoryWriter struct{}

// Write outputs the history report as CSV.
func (w *CSVHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	// Write header
	headers := []string{"Date", "User", "Operation", "EventDescription", "Version", "Comment", "Paths"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	// Write data
	for _, e := range entries {
		row := []string{
			formatTime(e.Timestamp),
			e.Author,
			e.Operation,
			e.EventDescription,
			e.VersionID,
			e.Comment,
			strings.Join(e.AffectedPaths, ";"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
