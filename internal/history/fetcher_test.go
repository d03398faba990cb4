package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
)

type fakeSource struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	sinces  map[string]*time.Time
}

func (s *fakeSource) Lshistory(_ context.Context, loadRule string, since *time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sinces == nil {
		s.sinces = make(map[string]*time.Time)
	}
	s.sinces[loadRule] = since
	if err := s.errs[loadRule]; err != nil {
		return nil, err
	}
	return []byte(s.outputs[loadRule]), nil
}

func newTestFetcher(src Source, opts FetchOptions) *Fetcher {
	return NewFetcher(src, cleartool.NewParser(time.UTC, nil), opts, nil)
}

const (
	historyA = "20200102.000000| |alice| |/vob/a/f2| |/main/2| |create version| |checkin| |second\n" +
		"20200101.000000| |alice| |/vob/a/f1| |/main/1| |create version| |checkin| |first\n"
	historyB = "20200105.103000| |bob| |/vob/b| |/main/3| |create directory version| |checkin| |\n" +
		"Added file element \"/vob/b/new.java\".\n"
)

func TestFetcher_Fetch(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run("concurrency", func(t *testing.T) {
			src := &fakeSource{outputs: map[string]string{"/vob/a": historyA, "/vob/b": historyB}}
			f := newTestFetcher(src, FetchOptions{Concurrency: concurrency})

			entries, err := f.Fetch(context.Background(), []string{"/vob/a", "/vob/b"}, nil)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("len = %d, expected 3", len(entries))
			}
			// load rule order, then query output order
			if entries[0].AffectedPaths[0] != "/vob/a/f2" || entries[2].Author != "bob" {
				t.Errorf("unexpected order: %+v", entries)
			}
			if got := entries[2].AffectedPaths; len(got) != 2 || got[1] != "/vob/b/new.java" {
				t.Errorf("continuation paths = %v", got)
			}
		})
	}
}

func TestFetcher_PassesWatermarkAsSince(t *testing.T) {
	src := &fakeSource{}
	f := newTestFetcher(src, FetchOptions{})

	watermark := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	since := loadrule.NewDateMap([]string{"/vob/a", "/vob/b"})
	since.Set("/vob/a", watermark)

	if _, err := f.Fetch(context.Background(), []string{"/vob/a", "/vob/b"}, since); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := src.sinces["/vob/a"]; got == nil || !got.Equal(watermark) {
		t.Errorf("since(/vob/a) = %v, expected %v", got, watermark)
	}
	if got := src.sinces["/vob/b"]; got != nil {
		t.Errorf("since(/vob/b) = %v, expected nil", got)
	}
}

func TestFetcher_LatestDates(t *testing.T) {
	src := &fakeSource{outputs: map[string]string{"/vob/a": historyA}}
	f := newTestFetcher(src, FetchOptions{Concurrency: 2})

	remote, err := f.LatestDates(context.Background(), []string{"/vob/a", "/vob/b"}, nil)
	if err != nil {
		t.Fatalf("LatestDates: %v", err)
	}
	if got, ok := remote.Get("/vob/a"); !ok || !got.Equal(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("/vob/a = %v, %v", got, ok)
	}
	if _, ok := remote.Get("/vob/b"); ok {
		t.Error("/vob/b should stay unset")
	}
}

func TestFetcher_ErrorPropagates(t *testing.T) {
	want := &cleartool.ExecutionError{ExitCode: 1, CommandLine: "cleartool lshistory"}
	src := &fakeSource{
		outputs: map[string]string{"/vob/a": historyA},
		errs:    map[string]error{"/vob/b": want},
	}

	for _, concurrency := range []int{1, 3} {
		f := newTestFetcher(src, FetchOptions{Concurrency: concurrency})
		_, err := f.LatestDates(context.Background(), []string{"/vob/a", "/vob/b"}, nil)
		var execErr *cleartool.ExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("concurrency %d: expected *ExecutionError, got %v", concurrency, err)
		}
	}
}

func TestFetcher_AppliesFilter(t *testing.T) {
	filter, err := NewPathFilter(nil, []string{"vob/b/*.java"})
	if err != nil {
		t.Fatalf("NewPathFilter: %v", err)
	}
	src := &fakeSource{outputs: map[string]string{"/vob/b": historyB}}
	f := newTestFetcher(src, FetchOptions{Filter: filter})

	entries, err := f.Fetch(context.Background(), []string{"/vob/b"}, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(entries) != 1 || len(entries[0].AffectedPaths) != 1 || entries[0].AffectedPaths[0] != "/vob/b" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestMockFetcher(t *testing.T) {
	entries := []cleartool.HistoryEntry{
		{Timestamp: time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), AffectedPaths: []string{"/vob/a/x"}},
	}
	m := NewMockFetcher(entries, nil)

	remote, err := m.LatestDates(context.Background(), []string{"/vob/a"}, nil)
	if err != nil {
		t.Fatalf("LatestDates: %v", err)
	}
	if _, ok := remote.Get("/vob/a"); !ok {
		t.Error("expected /vob/a watermark")
	}
	if len(m.Sinces) != 1 {
		t.Errorf("Sinces = %d, expected 1", len(m.Sinces))
	}

	m.Error = errors.New("boom")
	if _, err := m.Fetch(context.Background(), nil, nil); err == nil {
		t.Error("expected error")
	}
}
