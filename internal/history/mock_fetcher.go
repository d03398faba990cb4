package history

import (
	"context"
	"sync"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
)

// MockFetcher is a test double for Fetcher.
// It returns predefined entries without running cleartool.
type MockFetcher struct {
	Entries []cleartool.HistoryEntry
	Remote  *loadrule.DateMap // returned by LatestDates when set
	Error   error

	mu     sync.Mutex
	Sinces []*loadrule.DateMap // the since argument of every call
}

// NewMockFetcher creates a new MockFetcher with the given data.
func NewMockFetcher(entries []cleartool.HistoryEntry, err error) *MockFetcher {
	return &MockFetcher{
		Entries: entries,
		Error:   err,
	}
}

func (m *MockFetcher) record(since *loadrule.DateMap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sinces = append(m.Sinces, since.Clone())
}

// Fetch returns the predefined entries or error.
func (m *MockFetcher) Fetch(_ context.Context, _ []string, since *loadrule.DateMap) ([]cleartool.HistoryEntry, error) {
	m.record(since)
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Entries, nil
}

// LatestDates returns Remote, or the latest dates derived from Entries.
func (m *MockFetcher) LatestDates(_ context.Context, loadRules []string, since *loadrule.DateMap) (*loadrule.DateMap, error) {
	m.record(since)
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Remote != nil {
		return m.Remote.Clone(), nil
	}
	return loadrule.LatestPerLoadRule(m.Entries, loadRules), nil
}

// Compile-time interface conformance check.
var _ HistoryFetcher = (*MockFetcher)(nil)
