package cleartool

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// LookupCharset resolves the character set cleartool writes its output in,
// e.g. "utf-8", "windows-1252" or "iso-8859-1". The empty name yields nil,
// meaning output is read as UTF-8.
func LookupCharset(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	return enc, nil
}

// isXMLChar reports whether r is allowed in an XML 1.0 document.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	}
	return false
}

// ValidText reports whether s is valid UTF-8 made only of characters an XML
// changelog can carry unchanged.
func ValidText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !isXMLChar(r) }) < 0
}

// SanitizeText replaces invalid UTF-8 sequences and control characters that
// XML cannot carry with U+FFFD. It reports whether anything was replaced.
func SanitizeText(s string) (string, bool) {
	if ValidText(s) {
		return s, false
	}
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return utf8.RuneError
	}, s), true
}
