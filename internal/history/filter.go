package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/masmgr/clearpoll/internal/cleartool"
)

// PathFilter narrows history entries to affected paths matching include and
// exclude globs. Patterns use doublestar syntax and are matched against the
// path without its leading slash, e.g. "vob/app/**/*.java".
type PathFilter struct {
	include []string
	exclude []string

	mu    sync.Mutex
	cache map[string]bool
}

// NewPathFilter validates the patterns and returns a filter.
// A nil filter accepts every path.
func NewPathFilter(include, exclude []string) (*PathFilter, error) {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude glob %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include glob %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	return &PathFilter{
		include: append([]string(nil), include...),
		exclude: append([]string(nil), exclude...),
		cache:   make(map[string]bool),
	}, nil
}

// Matches reports whether path passes the filters.
func (f *PathFilter) Matches(path string) (bool, error) {
	if f == nil {
		return true, nil
	}

	f.mu.Lock()
	if v, ok := f.cache[path]; ok {
		f.mu.Unlock()
		return v, nil
	}
	f.mu.Unlock()

	v, err := f.match(path)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	f.cache[path] = v
	f.mu.Unlock()
	return v, nil
}

func (f *PathFilter) match(path string) (bool, error) {
	// Normalize path separators
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "/")

	// Check exclude patterns first
	for _, pattern := range f.exclude {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid exclude glob %q: %w", pattern, err)
		}
		if matched {
			return false, nil
		}
	}

	if len(f.include) == 0 {
		return true, nil
	}

	for _, pattern := range f.include {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid include glob %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// Apply keeps only matching paths of each entry and drops entries left with
// none. Input entries are not modified.
func (f *PathFilter) Apply(entries []cleartool.HistoryEntry) ([]cleartool.HistoryEntry, error) {
	if f == nil {
		return entries, nil
	}

	out := make([]cleartool.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		var kept []string
		for _, p := range e.AffectedPaths {
			ok, err := f.Matches(p)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			continue
		}
		c := e.Clone()
		c.AffectedPaths = kept
		out = append(out, c)
	}
	return out, nil
}
