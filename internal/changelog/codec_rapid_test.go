package changelog

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/masmgr/clearpoll/internal/cleartool"
	"pgregory.net/rapid"
)

// --- Generators ---

func genText() *rapid.Generator[string] {
	return rapid.StringOfN(rapid.RuneFrom([]rune(`abcXYZ019 _-./\<>&"'éü日本`+"\n\t\r\u00a0\U0001D11E")), 0, 20, -1)
}

// genRawText mixes valid text with bytes cleartool may emit on non-UTF-8
// hosts: Latin-1 bytes, stray continuation bytes and control characters.
func genRawText() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		parts := rapid.SliceOfN(rapid.OneOf(
			genText(),
			rapid.SampledFrom([]string{"\xe9", "\xff", "\x80", "\x00", "\x07", "\x1b", "\x7f", "\ufffe"}),
		), 0, 6).Draw(t, "parts")
		return strings.Join(parts, "")
	})
}

func genEntry() *rapid.Generator[cleartool.HistoryEntry] {
	return rapid.Custom(func(t *rapid.T) cleartool.HistoryEntry {
		base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
		offsetMin := rapid.IntRange(-12*60, 14*60).Draw(t, "zone") / 15 * 15
		loc := time.FixedZone("Z", offsetMin*60)
		ts := base.Add(time.Duration(rapid.Int64Range(0, 1_000_000_000).Draw(t, "seconds")) * time.Second).In(loc)

		n := rapid.IntRange(1, 4).Draw(t, "paths")
		paths := make([]string, n)
		for i := range paths {
			paths[i] = fmt.Sprintf("/vob/%s", rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8}){0,3}`).Draw(t, fmt.Sprintf("path%d", i)))
		}

		return cleartool.HistoryEntry{
			Timestamp:        ts,
			Author:           genText().Draw(t, "author"),
			VersionID:        genText().Draw(t, "version"),
			Operation:        genText().Draw(t, "operation"),
			EventDescription: genText().Draw(t, "event"),
			Comment:          genText().Draw(t, "comment"),
			AffectedPaths:    paths,
		}
	})
}

// --- Property Tests ---

func TestRapidXMLCodec_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		entries := rapid.SliceOfN(genEntry(), 0, 10).Draw(rt, "entries")

		var buf bytes.Buffer
		if err := (XMLCodec{}).Encode(&buf, entries); err != nil {
			rt.Fatalf("Encode: %v", err)
		}
		got, err := XMLCodec{}.Decode(&buf)
		if err != nil {
			rt.Fatalf("Decode: %v\n%s", err, buf.String())
		}

		if len(got) != len(entries) {
			rt.Fatalf("len = %d, expected %d", len(got), len(entries))
		}
		for i := range entries {
			g, w := got[i], entries[i]
			if !g.Timestamp.Equal(w.Timestamp) || g.Author != w.Author || g.VersionID != w.VersionID ||
				g.Operation != w.Operation || g.EventDescription != w.EventDescription || g.Comment != w.Comment ||
				len(g.AffectedPaths) != len(w.AffectedPaths) {
				rt.Fatalf("[%d] got %+v, expected %+v", i, g, w)
			}
			for j := range w.AffectedPaths {
				if g.AffectedPaths[j] != w.AffectedPaths[j] {
					rt.Fatalf("[%d] path %d = %q, expected %q", i, j, g.AffectedPaths[j], w.AffectedPaths[j])
				}
			}
		}
	})
}

func TestRapidXMLCodec_RawTextRoundTripsOrFails(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := genEntry().Draw(rt, "entry")
		e.Comment = genRawText().Draw(rt, "comment")

		var buf bytes.Buffer
		err := (XMLCodec{}).Encode(&buf, []cleartool.HistoryEntry{e})
		if !cleartool.ValidText(e.Comment) {
			var codecErr *CodecError
			if !errors.As(err, &codecErr) {
				rt.Fatalf("comment %q: expected *CodecError, got %v", e.Comment, err)
			}
			return
		}
		if err != nil {
			rt.Fatalf("Encode: %v", err)
		}

		got, err := XMLCodec{}.Decode(&buf)
		if err != nil {
			rt.Fatalf("Decode: %v", err)
		}
		if got[0].Comment != e.Comment {
			rt.Fatalf("Comment = %q, expected %q", got[0].Comment, e.Comment)
		}
	})
}

func TestRapidSort_Ordered(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		entries := rapid.SliceOfN(genEntry(), 0, 20).Draw(rt, "entries")

		asc := Sort(entries, Ascending)
		desc := Sort(entries, Descending)
		for i := 1; i < len(entries); i++ {
			if asc[i].Timestamp.Before(asc[i-1].Timestamp) {
				rt.Fatalf("ascending out of order at %d", i)
			}
			if desc[i].Timestamp.After(desc[i-1].Timestamp) {
				rt.Fatalf("descending out of order at %d", i)
			}
		}
	})
}
