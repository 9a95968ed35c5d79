package specialized

import (
	"regexp"
	"strings"
)

var (
	markdownChars = regexp.MustCompile("[*#_`]+")
	leadingMarker = regexp.MustCompile(`^[•\-–◦]+\s*`)
	spaces        = regexp.MustCompile(`\s+`)
)

// normalizeSection strips markdown punctuation, forces a uniform bullet
// marker on every line, and drops duplicate lines. Same intent as the
// coordinated pipeline's formatter, implemented separately because this
// pipeline has no validator or formatter stage.
func normalizeSection(content string) string {
	content = markdownChars.ReplaceAllString(content, "")

	seen := make(map[string]bool)
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(leadingMarker.ReplaceAllString(line, ""))
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, "• "+line)
	}
	return strings.Join(lines, "\n")
}

// normalizeAnswer strips markdown punctuation and collapses whitespace.
func normalizeAnswer(content string) string {
	content = markdownChars.ReplaceAllString(content, "")
	return strings.TrimSpace(spaces.ReplaceAllString(content, " "))
}

// cleanText prepares raw document text for this pipeline's chunker. It is
// more aggressive than the shared extractor cleanup: all whitespace runs,
// newlines included, collapse to single spaces.
func cleanText(text string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}
