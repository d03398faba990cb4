package output

import (
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/masmgr/clearpoll/internal/loadrule"
)

const (
	reportDateTimeLayout = "2006-01-02 15:04:05"
	commentWidth         = 60
)

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

// sinceLabelAndValue describes the lower bound of a history query.
func sinceLabelAndValue(since *loadrule.DateMap) (string, string) {
	if since.IsEmpty() {
		return "Range", "last events per load rule"
	}
	return "Since", since.String()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatOptionalTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	formatted := formatTime(t)
	return &formatted
}

func firstLine(s string) string {
	if idx := strings.IndexAny(s, "\r\n"); idx != -1 {
		return s[:idx]
	}
	return s
}

// truncateMessage shortens msg to maxLen runes, ending in "...".
func truncateMessage(msg string, maxLen int) string {
	if utf8.RuneCountInString(msg) <= maxLen {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:maxLen-3]) + "..."
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}
