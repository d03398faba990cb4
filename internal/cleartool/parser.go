package cleartool

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding"
)

// Continuation markers. Such lines add a path to the preceding record.
const (
	addedFileElement      = "Added file element"
	addedDirectoryElement = "Added directory element"
	elementQuote          = `"`
)

// Record field positions in HistoryFormat.
const (
	fieldDate = iota
	fieldUser
	fieldPath
	fieldVersion
	fieldEvent
	fieldOperation
	fieldComment

	minRecordFields = fieldComment
	maxRecordFields = fieldComment + 1
)

// Parser converts raw lshistory output into history entries.
type Parser struct {
	loc     *time.Location
	charset encoding.Encoding // nil reads output as UTF-8
	logger  *log.Logger
}

// NewParser creates a parser that reads record dates in loc.
func NewParser(loc *time.Location, logger *log.Logger) *Parser {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Parser{loc: loc, logger: logger}
}

// WithCharset sets the character set raw output is decoded from and returns
// the parser. A nil charset reads output as UTF-8.
func (p *Parser) WithCharset(charset encoding.Encoding) *Parser {
	p.charset = charset
	return p
}

// decode turns raw output into text a changelog can carry. Bytes the
// charset cannot map and control characters become U+FFFD.
func (p *Parser) decode(raw []byte) string {
	if p.charset != nil {
		decoded, err := p.charset.NewDecoder().Bytes(raw)
		if err != nil {
			p.logger.Warn("unable to decode lshistory output, reading it as UTF-8", "err", err)
		} else {
			raw = decoded
		}
	}
	text, replaced := SanitizeText(string(raw))
	if replaced {
		p.logger.Warn("lshistory output holds invalid characters, replaced with U+FFFD")
	}
	return text
}

// Parse returns the entries in raw in input order. Malformed records and
// orphan continuation lines are logged and dropped; Parse never fails.
// Invalid UTF-8 and control characters XML cannot carry become U+FFFD.
func (p *Parser) Parse(raw []byte) []HistoryEntry {
	var entries []HistoryEntry
	current := -1

	for _, line := range strings.Split(p.decode(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if isContinuation(line) {
			if current < 0 {
				p.logger.Warn("continuation line without a preceding entry, skipping", "line", line)
				continue
			}
			path, ok := quotedPath(line)
			if !ok {
				p.logger.Warn("continuation line without a quoted path, skipping", "line", line)
				continue
			}
			entries[current].AffectedPaths = append(entries[current].AffectedPaths, path)
			continue
		}

		entry, ok := p.parseRecord(line)
		if !ok {
			p.logger.Warn("unable to parse lshistory record, skipping", "line", line)
			continue
		}
		entries = append(entries, entry)
		current = len(entries) - 1
	}

	return entries
}

func (p *Parser) parseRecord(line string) (HistoryEntry, bool) {
	fields := strings.SplitN(line, FieldSeparator, maxRecordFields)
	if len(fields) < minRecordFields {
		return HistoryEntry{}, false
	}

	when, err := ParseEntryDate(fields[fieldDate], p.loc)
	if err != nil {
		return HistoryEntry{}, false
	}

	comment := ""
	if len(fields) > fieldComment {
		comment = fields[fieldComment]
	}

	return HistoryEntry{
		Timestamp:        when,
		Author:           fields[fieldUser],
		VersionID:        fields[fieldVersion],
		Operation:        fields[fieldOperation],
		EventDescription: fields[fieldEvent],
		Comment:          comment,
		AffectedPaths:    []string{fields[fieldPath]},
	}, true
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, addedFileElement) || strings.HasPrefix(line, addedDirectoryElement)
}

// quotedPath extracts the text between the first and second quote.
func quotedPath(line string) (string, bool) {
	start := strings.Index(line, elementQuote)
	if start < 0 {
		return "", false
	}
	rest := line[start+1:]
	end := strings.Index(rest, elementQuote)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
