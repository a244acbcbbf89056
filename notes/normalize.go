// notes/normalize.go
package notes

import (
	"regexp"
	"strings"
)

var (
	// lineBreakPattern splits on \r\n or \n.
	lineBreakPattern = regexp.MustCompile(`\r?\n`)

	nonAlphanumericPattern = regexp.MustCompile(`[^a-z0-9]+`)
	whitespacePattern      = regexp.MustCompile(`\s+`)

	// keyValuePattern requires at least one character before the first colon.
	keyValuePattern = regexp.MustCompile(`^([^:]+):(.*)$`)
)

// SplitLines breaks raw note text into trimmed, non-empty lines in source order.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	var lines []string
	for _, raw := range lineBreakPattern.Split(text, -1) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// NormalizeKey canonicalizes a field label into a lookup key:
//
//	"Estimate #"          -> "estimate number"
//	"Sales Tax (3.965%)"  -> "sales tax 3 965"
func NormalizeKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, "#", " number ")
	key = nonAlphanumericPattern.ReplaceAllString(key, " ")
	key = whitespacePattern.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// splitKeyValue reports whether line has the "label: value" shape and returns
// the trimmed label and inline value. A value made only of colons counts as
// empty, so "Total::" and "Total: :" read the same as "Total:".
func splitKeyValue(line string) (label, value string, ok bool) {
	m := keyValuePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	value = strings.TrimSpace(m[2])
	if strings.Trim(value, ":") == "" {
		value = ""
	}
	return strings.TrimSpace(m[1]), value, true
}

func stripTrailingColons(line string) string {
	return strings.TrimSpace(strings.TrimRight(line, ":"))
}
