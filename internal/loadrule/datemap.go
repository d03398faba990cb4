package loadrule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout renders watermarks in diagnostics and persisted state.
const DateLayout = "2006-01-02T15:04:05-0700"

// DateMap maps each configured load rule to the latest known change time.
// A load rule without a timestamp has no observed history yet. The zero
// value is an empty map with no load rules.
type DateMap struct {
	rules []string
	dates map[string]time.Time
}

// NewDateMap creates a map keyed by loadRules with no timestamps set.
func NewDateMap(loadRules []string) *DateMap {
	m := &DateMap{dates: make(map[string]time.Time, len(loadRules))}
	for _, lr := range loadRules {
		m.addRule(lr)
	}
	return m
}

func (m *DateMap) addRule(lr string) {
	for _, existing := range m.rules {
		if existing == lr {
			return
		}
	}
	m.rules = append(m.rules, lr)
}

// Set records t as the watermark for loadRule, adding the rule if needed.
func (m *DateMap) Set(loadRule string, t time.Time) {
	if m.dates == nil {
		m.dates = make(map[string]time.Time)
	}
	m.addRule(loadRule)
	m.dates[loadRule] = t
}

// Get returns the watermark for loadRule.
func (m *DateMap) Get(loadRule string) (time.Time, bool) {
	if m == nil {
		return time.Time{}, false
	}
	t, ok := m.dates[loadRule]
	return t, ok
}

// Since returns a pointer to the watermark for loadRule, or nil when unset.
// It is the lower bound handed to lshistory -since.
func (m *DateMap) Since(loadRule string) *time.Time {
	t, ok := m.Get(loadRule)
	if !ok {
		return nil
	}
	return &t
}

// LoadRules returns the load rules in configuration order.
func (m *DateMap) LoadRules() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.rules...)
}

// Dates returns the set timestamps in load rule order.
func (m *DateMap) Dates() []time.Time {
	if m == nil {
		return nil
	}
	out := make([]time.Time, 0, len(m.dates))
	for _, lr := range m.rules {
		if t, ok := m.dates[lr]; ok {
			out = append(out, t)
		}
	}
	return out
}

// IsEmpty reports whether no load rule has a timestamp.
func (m *DateMap) IsEmpty() bool {
	return m == nil || len(m.dates) == 0
}

// HasUnset reports whether any load rule is missing a timestamp.
func (m *DateMap) HasUnset() bool {
	if m == nil {
		return false
	}
	for _, lr := range m.rules {
		if _, ok := m.dates[lr]; !ok {
			return true
		}
	}
	return false
}

// IsBefore reports whether some load rule has a timestamp in m strictly
// before its timestamp in other. An unset timestamp on either side is never
// before; callers must handle empty baselines themselves.
func (m *DateMap) IsBefore(other *DateMap) bool {
	if m == nil || other == nil {
		return false
	}
	for _, lr := range m.rules {
		mine, ok := m.dates[lr]
		if !ok {
			continue
		}
		theirs, ok := other.dates[lr]
		if !ok {
			continue
		}
		if mine.Before(theirs) {
			return true
		}
	}
	return false
}

// Merge returns a new map holding, per load rule, the later timestamp of m
// and other. Load rules of both maps are kept, m's first.
func (m *DateMap) Merge(other *DateMap) *DateMap {
	out := m.Clone()
	if other == nil {
		return out
	}
	for _, lr := range other.rules {
		out.addRule(lr)
		t, ok := other.dates[lr]
		if !ok {
			continue
		}
		if cur, ok := out.dates[lr]; !ok || cur.Before(t) {
			out.dates[lr] = t
		}
	}
	return out
}

// Clone returns an independent copy of m.
func (m *DateMap) Clone() *DateMap {
	out := &DateMap{dates: make(map[string]time.Time)}
	if m == nil {
		return out
	}
	out.rules = append(out.rules, m.rules...)
	for k, v := range m.dates {
		out.dates[k] = v
	}
	return out
}

// String renders the map as "[[rule, date], [rule, <nil>]]".
func (m *DateMap) String() string {
	if m == nil {
		return "[]"
	}
	parts := make([]string, 0, len(m.rules))
	for _, lr := range m.rules {
		date := "<nil>"
		if t, ok := m.dates[lr]; ok {
			date = t.Format(DateLayout)
		}
		parts = append(parts, fmt.Sprintf("[%s, %s]", lr, date))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type jsonWatermark struct {
	LoadRule string  `json:"loadRule"`
	Date     *string `json:"date,omitempty"`
}

// MarshalJSON encodes the map as an ordered list of watermarks.
func (m *DateMap) MarshalJSON() ([]byte, error) {
	items := make([]jsonWatermark, 0)
	if m != nil {
		for _, lr := range m.rules {
			item := jsonWatermark{LoadRule: lr}
			if t, ok := m.dates[lr]; ok {
				s := t.Format(DateLayout)
				item.Date = &s
			}
			items = append(items, item)
		}
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes the list written by MarshalJSON.
func (m *DateMap) UnmarshalJSON(data []byte) error {
	var items []jsonWatermark
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*m = DateMap{dates: make(map[string]time.Time, len(items))}
	for _, item := range items {
		if item.LoadRule == "" {
			return fmt.Errorf("watermark without load rule")
		}
		m.addRule(item.LoadRule)
		if item.Date == nil {
			continue
		}
		t, err := time.Parse(DateLayout, *item.Date)
		if err != nil {
			return fmt.Errorf("watermark for %s: %w", item.LoadRule, err)
		}
		m.dates[item.LoadRule] = t
	}
	return nil
}
