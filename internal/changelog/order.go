package changelog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/masmgr/clearpoll/internal/cleartool"
)

// Order is the timestamp ordering of a change set.
type Order string

const (
	Ascending  Order = "ascending"
	Descending Order = "descending"
)

// DefaultOrder lists the newest change first.
const DefaultOrder = Descending

// ParseOrder parses an order name. The empty string yields DefaultOrder.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultOrder, nil
	case Ascending, "increasing", "asc":
		return Ascending, nil
	case Descending, "decreasing", "desc":
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown changelog order %q", s)
	}
}

// Sort returns a copy of entries ordered by timestamp. Entries with equal
// timestamps keep their relative order.
func Sort(entries []cleartool.HistoryEntry, order Order) []cleartool.HistoryEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b cleartool.HistoryEntry) int {
		c := a.Timestamp.Compare(b.Timestamp)
		if order == Ascending {
			return c
		}
		return -c
	})
	return out
}
