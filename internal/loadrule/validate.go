package loadrule

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ConfigurationError reports an invalid load rule set or view setting.
type ConfigurationError struct {
	Field   string // "loadRules" or "viewName"
	Value   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %q", e.Field, e.Message, e.Value)
}

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Split parses a newline separated load rule block into trimmed rules.
// Blank lines are dropped.
func Split(text string) []string {
	var rules []string
	for _, part := range lineBreaks.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			rules = append(rules, part)
		}
	}
	return rules
}

// Validate checks a load rule set: it must be non-empty, free of whitespace
// and duplicates, and no rule may be a path segment prefix of another.
func Validate(loadRules []string) error {
	if len(loadRules) == 0 {
		return &ConfigurationError{Field: "loadRules", Message: "no load rules configured"}
	}

	seen := make(map[string]struct{}, len(loadRules))
	for _, lr := range loadRules {
		if strings.TrimSpace(lr) == "" {
			return &ConfigurationError{Field: "loadRules", Message: "empty load rule"}
		}
		if strings.IndexFunc(lr, unicode.IsSpace) >= 0 {
			return &ConfigurationError{Field: "loadRules", Value: lr, Message: "load rule contains whitespace"}
		}
		if len(lr) > 1 && strings.HasSuffix(lr, "/") {
			return &ConfigurationError{Field: "loadRules", Value: lr, Message: "load rule has a trailing slash"}
		}
		if _, dup := seen[lr]; dup {
			return &ConfigurationError{Field: "loadRules", Value: lr, Message: "duplicated load rule"}
		}
		seen[lr] = struct{}{}
	}

	for _, a := range loadRules {
		for _, b := range loadRules {
			if a != b && isSegmentPrefix(a, b) {
				return &ConfigurationError{
					Field:   "loadRules",
					Value:   b,
					Message: fmt.Sprintf("load rule is covered by %s", a),
				}
			}
		}
	}
	return nil
}

// ValidateViewName checks that a view name is non-empty and has no whitespace.
func ValidateViewName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ConfigurationError{Field: "viewName", Message: "view name is empty"}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return &ConfigurationError{Field: "viewName", Value: name, Message: "view name contains whitespace"}
	}
	return nil
}

// isSegmentPrefix reports whether prefix names a directory containing path.
func isSegmentPrefix(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if strings.HasSuffix(prefix, "/") {
		return true
	}
	return len(path) > len(prefix) && path[len(prefix)] == '/'
}
