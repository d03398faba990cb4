package cleartool

import (
	"strings"
	"time"
)

// Date layouts used when talking to cleartool. They are never interchanged.
const (
	// EntryDateLayout is the %Nd numeric date emitted in lshistory records.
	EntryDateLayout = "20060102.150405"
	// SinceDateLayout is the human form accepted by lshistory -since.
	SinceDateLayout = "2-Jan-06.15:04:05UTC-0700"
)

// ParseEntryDate parses a numeric record date in loc.
func ParseEntryDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(EntryDateLayout, strings.TrimSpace(s), loc)
}

// FormatSinceDate renders t for the -since argument. cleartool expects the
// month abbreviation and zone marker in lower case.
func FormatSinceDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return strings.ToLower(t.In(loc).Format(SinceDateLayout))
}
