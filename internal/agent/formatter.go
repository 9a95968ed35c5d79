package agent

import (
	"regexp"
	"strings"
)

var (
	bulletMarker = regexp.MustCompile(`^[•\-\*–◦]+\s*`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// FormatSection deterministically normalizes report-section text: trims
// lines, drops blanks, forces a single "• " prefix on every line and
// deduplicates identical lines. This is the last stage; its output is
// what is stored and returned.
func FormatSection(content string) string {
	seen := make(map[string]bool)
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = bulletMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, "• "+line)
	}
	return strings.Join(lines, "\n")
}

// FormatAnswer collapses all whitespace in a question answer to single
// spaces and trims the result.
func FormatAnswer(content string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
}
