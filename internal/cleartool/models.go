package cleartool

import (
	"strings"
	"time"
)

// HistoryEntry represents one repository change event reported by lshistory.
type HistoryEntry struct {
	Timestamp        time.Time
	Author           string
	VersionID        string
	Operation        string // e.g. checkin, mkelem, mkdir
	EventDescription string
	Comment          string
	AffectedPaths    []string
}

// ContainsPathWithPrefix reports whether any affected path starts with prefix.
// This is a plain string prefix test: "/vob/a" matches "/vob/ab/x".
func (e HistoryEntry) ContainsPathWithPrefix(prefix string) bool {
	for _, p := range e.AffectedPaths {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (e HistoryEntry) Clone() HistoryEntry {
	c := e
	c.AffectedPaths = append([]string(nil), e.AffectedPaths...)
	return c
}

// Latest returns the latest timestamp among entries, or false if entries is empty.
func Latest(entries []HistoryEntry) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, e := range entries {
		if !found || latest.Before(e.Timestamp) {
			latest = e.Timestamp
			found = true
		}
	}
	return latest, found
}

// Options configures how cleartool is invoked and how its output is interpreted.
type Options struct {
	Executable    string         // defaults to "cleartool"
	ViewName      string         // when set, queries run through setview -exec
	WorkDir       string         // working directory for spawned processes
	Location      *time.Location // repository-local time zone, defaults to time.Local
	LastNumEvents int            // bound for cold-start queries without -since
	Timeout       time.Duration  // per-command timeout, zero means none
}

func (o Options) executable() string {
	if strings.TrimSpace(o.Executable) == "" {
		return DefaultExecutable
	}
	return o.Executable
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}
