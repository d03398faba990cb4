package polling

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
)

// RevisionState is the checkpoint recorded after a build: the watermark of
// every load rule plus the build it belongs to. It is never modified after
// construction; accessors return copies.
type RevisionState struct {
	buildID string
	dates   *loadrule.DateMap
}

// NewRevisionState creates a state for buildID. An empty buildID is replaced
// by a random UUID.
func NewRevisionState(buildID string, dates *loadrule.DateMap) *RevisionState {
	return &RevisionState{buildID: buildIDOrNew(buildID), dates: dates.Clone()}
}

// StateFromChangeLog builds the state recorded after a checkout that
// produced entries, carrying forward prior watermarks for load rules that
// saw no new history. Load rules no longer configured are dropped.
func StateFromChangeLog(buildID string, entries []cleartool.HistoryEntry, loadRules []string, prior *loadrule.DateMap) *RevisionState {
	merged := loadrule.LatestPerLoadRule(entries, loadRules).Merge(prior)

	dates := loadrule.NewDateMap(loadRules)
	for _, lr := range loadRules {
		if t, ok := merged.Get(lr); ok {
			dates.Set(lr, t)
		}
	}
	return &RevisionState{buildID: buildIDOrNew(buildID), dates: dates}
}

func buildIDOrNew(buildID string) string {
	if buildID == "" {
		return uuid.NewString()
	}
	return buildID
}

// BuildID returns the identifier of the build that recorded the state.
func (s *RevisionState) BuildID() string {
	if s == nil {
		return ""
	}
	return s.buildID
}

// Dates returns a copy of the load rule watermarks.
func (s *RevisionState) Dates() *loadrule.DateMap {
	if s == nil {
		return nil
	}
	return s.dates.Clone()
}

// IsEmpty reports whether the state carries no watermark at all.
func (s *RevisionState) IsEmpty() bool {
	return s == nil || s.dates.IsEmpty()
}

// IsTagged reports whether every load rule has a watermark.
func (s *RevisionState) IsTagged() bool {
	return !s.IsEmpty() && !s.dates.HasUnset()
}

func (s *RevisionState) String() string {
	if s == nil {
		return "<none>"
	}
	return s.buildID + " " + s.dates.String()
}

type revisionStateJSON struct {
	BuildID string            `json:"buildId"`
	Dates   *loadrule.DateMap `json:"dates"`
}

// MarshalJSON encodes the build ID and the ordered watermarks.
func (s *RevisionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(revisionStateJSON{BuildID: s.BuildID(), Dates: s.Dates()})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *RevisionState) UnmarshalJSON(data []byte) error {
	var v revisionStateJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.BuildID == "" {
		return fmt.Errorf("revision state without build id")
	}
	if v.Dates == nil {
		v.Dates = loadrule.NewDateMap(nil)
	}
	s.buildID = v.BuildID
	s.dates = v.Dates
	return nil
}
