package changelog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/masmgr/clearpoll/internal/cleartool"
)

// DateLayout formats entry dates in the changelog document.
const DateLayout = "2006-01-02T15:04:05-0700"

// SchemaVersion is written on the root element. Documents without a version
// attribute are read as version 1.
const SchemaVersion = "1"

// ChangeLogCodec persists change sets.
type ChangeLogCodec interface {
	Encode(w io.Writer, entries []cleartool.HistoryEntry) error
	Decode(r io.Reader) ([]cleartool.HistoryEntry, error)
}

// CodecError reports a malformed document or an I/O failure.
type CodecError struct {
	Op   string // "encode", "decode", "write" or "read"
	Path string // empty for stream operations
	Err  error
}

func (e *CodecError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("changelog %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("changelog %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Document elements. Pointer fields distinguish a missing element from an
// empty one.
type xmlChangeLog struct {
	XMLName xml.Name   `xml:"changelog"`
	Version string     `xml:"version,attr,omitempty"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Date             *string   `xml:"date"`
	User             *string   `xml:"user"`
	Operation        *string   `xml:"operation"`
	EventDescription *string   `xml:"eventdescription"`
	Version          *string   `xml:"version"`
	Comment          *string   `xml:"comment"`
	Items            *xmlItems `xml:"items"`
}

type xmlItems struct {
	Items []string `xml:"item"`
}

// XMLCodec reads and writes the XML changelog document.
type XMLCodec struct{}

// Encode writes entries in order. Text that XML cannot carry unchanged,
// such as invalid UTF-8 or control characters, fails the encode.
func (XMLCodec) Encode(w io.Writer, entries []cleartool.HistoryEntry) error {
	doc := xmlChangeLog{Version: SchemaVersion, Entries: make([]xmlEntry, 0, len(entries))}
	for i, e := range entries {
		if len(e.AffectedPaths) == 0 {
			return &CodecError{Op: "encode", Err: fmt.Errorf("entry %d has no affected paths", i)}
		}
		if field, ok := invalidField(e); ok {
			return &CodecError{Op: "encode", Err: fmt.Errorf("entry %d: %s is not valid UTF-8 XML text", i, field)}
		}
		doc.Entries = append(doc.Entries, toXMLEntry(e))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	return nil
}

// Decode reads entries in document order. A missing element, an entry
// without items, a bad date or an unknown schema version fails the decode.
func (XMLCodec) Decode(r io.Reader) ([]cleartool.HistoryEntry, error) {
	var doc xmlChangeLog
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &CodecError{Op: "decode", Err: err}
	}
	if doc.Version != "" && doc.Version != SchemaVersion {
		return nil, &CodecError{Op: "decode", Err: fmt.Errorf("unsupported schema version %q", doc.Version)}
	}

	entries := make([]cleartool.HistoryEntry, 0, len(doc.Entries))
	for i, x := range doc.Entries {
		e, err := fromXMLEntry(x)
		if err != nil {
			return nil, &CodecError{Op: "decode", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// invalidField names the first field of e holding text that would not
// survive encoding.
func invalidField(e cleartool.HistoryEntry) (string, bool) {
	fields := []struct {
		name, v string
	}{
		{"user", e.Author},
		{"operation", e.Operation},
		{"eventdescription", e.EventDescription},
		{"version", e.VersionID},
		{"comment", e.Comment},
	}
	for _, f := range fields {
		if !cleartool.ValidText(f.v) {
			return f.name, true
		}
	}
	for j, p := range e.AffectedPaths {
		if !cleartool.ValidText(p) {
			return fmt.Sprintf("item %d", j), true
		}
	}
	return "", false
}

func toXMLEntry(e cleartool.HistoryEntry) xmlEntry {
	str := func(s string) *string { return &s }
	return xmlEntry{
		Date:             str(e.Timestamp.Format(DateLayout)),
		User:             str(e.Author),
		Operation:        str(e.Operation),
		EventDescription: str(e.EventDescription),
		Version:          str(e.VersionID),
		Comment:          str(e.Comment),
		Items:            &xmlItems{Items: append([]string(nil), e.AffectedPaths...)},
	}
}

var errMissingElement = errors.New("missing element")

func fromXMLEntry(x xmlEntry) (cleartool.HistoryEntry, error) {
	required := []struct {
		name string
		v    *string
	}{
		{"date", x.Date},
		{"user", x.User},
		{"operation", x.Operation},
		{"eventdescription", x.EventDescription},
		{"version", x.Version},
		{"comment", x.Comment},
	}
	for _, f := range required {
		if f.v == nil {
			return cleartool.HistoryEntry{}, fmt.Errorf("%w <%s>", errMissingElement, f.name)
		}
	}
	if x.Items == nil {
		return cleartool.HistoryEntry{}, fmt.Errorf("%w <items>", errMissingElement)
	}
	if len(x.Items.Items) == 0 {
		return cleartool.HistoryEntry{}, errors.New("empty <items>")
	}

	ts, err := time.Parse(DateLayout, *x.Date)
	if err != nil {
		return cleartool.HistoryEntry{}, fmt.Errorf("invalid <date>: %w", err)
	}

	return cleartool.HistoryEntry{
		Timestamp:        ts,
		Author:           *x.User,
		Operation:        *x.Operation,
		EventDescription: *x.EventDescription,
		VersionID:        *x.Version,
		Comment:          *x.Comment,
		AffectedPaths:    append([]string(nil), x.Items.Items...),
	}, nil
}

// WriteFile writes entries to path, replacing it atomically.
func (c XMLCodec) WriteFile(path string, entries []cleartool.HistoryEntry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".changelog-*.xml")
	if err != nil {
		return &CodecError{Op: "write", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := c.Encode(tmp, entries); err != nil {
		tmp.Close()
		var codecErr *CodecError
		if errors.As(err, &codecErr) {
			codecErr.Path = path
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		return &CodecError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &CodecError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// ReadFile reads the entries stored at path.
func (c XMLCodec) ReadFile(path string) ([]cleartool.HistoryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CodecError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	entries, err := c.Decode(f)
	if err != nil {
		var codecErr *CodecError
		if errors.As(err, &codecErr) {
			codecErr.Path = path
		}
		return nil, err
	}
	return entries, nil
}

// WriteFile writes entries to path with XMLCodec.
func WriteFile(path string, entries []cleartool.HistoryEntry) error {
	return XMLCodec{}.WriteFile(path, entries)
}

// ReadFile reads path with XMLCodec.
func ReadFile(path string) ([]cleartool.HistoryEntry, error) {
	return XMLCodec{}.ReadFile(path)
}

// Compile-time interface conformance check.
var _ ChangeLogCodec = XMLCodec{}
