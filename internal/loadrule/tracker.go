package loadrule

import (
	"github.com/masmgr/clearpoll/internal/cleartool"
)

// LatestPerLoadRule returns, for each load rule, the latest timestamp among
// entries with an affected path prefixed by that rule. Rules with no
// matching entry stay unset.
func LatestPerLoadRule(entries []cleartool.HistoryEntry, loadRules []string) *DateMap {
	m := NewDateMap(loadRules)
	for _, lr := range loadRules {
		matched := MatchingEntries(entries, lr)
		if latest, ok := cleartool.Latest(matched); ok {
			m.Set(lr, latest)
		}
	}
	return m
}

// MatchingEntries returns the entries with a path prefixed by loadRule.
func MatchingEntries(entries []cleartool.HistoryEntry, loadRule string) []cleartool.HistoryEntry {
	var out []cleartool.HistoryEntry
	for _, e := range entries {
		if e.ContainsPathWithPrefix(loadRule) {
			out = append(out, e)
		}
	}
	return out
}

// RemoveAlreadySeen drops entries whose timestamp equals the prior watermark
// of a load rule they match. lshistory -since is inclusive of its bound, so
// the last seen event comes back on every incremental query. Entries after
// the watermark are kept. The input slice is not modified.
func RemoveAlreadySeen(entries []cleartool.HistoryEntry, prior *DateMap, loadRules []string) []cleartool.HistoryEntry {
	if prior.IsEmpty() {
		return append([]cleartool.HistoryEntry(nil), entries...)
	}

	out := make([]cleartool.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if seenAtWatermark(e, prior, loadRules) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func seenAtWatermark(e cleartool.HistoryEntry, prior *DateMap, loadRules []string) bool {
	for _, lr := range loadRules {
		watermark, ok := prior.Get(lr)
		if !ok {
			continue
		}
		if e.ContainsPathWithPrefix(lr) && e.Timestamp.Equal(watermark) {
			return true
		}
	}
	return false
}
