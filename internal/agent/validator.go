package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mkovalev/finsight/internal/provider"
)

var forbiddenMarkdown = []string{"*", "#", "_", "`"}

// Validator is a single-pass self-check-and-repair step. When the draft
// violates the formatting rules, exactly one corrective completion is
// issued and its output replaces the draft without re-validation, so
// repair cost is bounded per unit of work.
type Validator struct {
	completer Completer
}

// NewValidator creates a Validator using the given completion capability.
func NewValidator(completer Completer) *Validator {
	return &Validator{completer: completer}
}

// Check returns the list of formatting issues in content, or nil when the
// draft passes.
func (v *Validator) Check(content string, question bool) []string {
	if question {
		return checkAnswer(content)
	}
	return checkSection(content)
}

func checkSection(content string) []string {
	var issues []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(line), "• ") {
			issues = append(issues, fmt.Sprintf("line does not start with a bullet: %q", firstChars(line, 60)))
			break
		}
	}
	for _, ch := range forbiddenMarkdown {
		if strings.Contains(content, ch) {
			issues = append(issues, fmt.Sprintf("content contains forbidden markdown character %q", ch))
		}
	}
	return issues
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

func checkAnswer(content string) []string {
	count := 0
	for _, s := range sentenceEnd.Split(content, -1) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	if count < 1 || count > 4 {
		return []string{fmt.Sprintf("answer has %d sentences, expected 1 to 4", count)}
	}
	return nil
}

// Repair issues the single corrective completion for a draft with issues.
// The corrected text is returned as-is; it is not validated again.
func (v *Validator) Repair(ctx context.Context, content string, issues []string, evidence Evidence, question bool) (string, error) {
	format := `plain text bullet lines, each starting with "• ", no markdown symbols`
	if question {
		format = "2-3 plain sentences, no markdown"
	}

	var sb strings.Builder
	sb.WriteString("The following draft violates its formatting rules. Rewrite it so it satisfies the rules, preserving the substance. Output only the corrected text.\n")
	fmt.Fprintf(&sb, "\nRequired format: %s\n", format)
	sb.WriteString("\nIssues:\n")
	for _, issue := range issues {
		fmt.Fprintf(&sb, "- %s\n", issue)
	}
	fmt.Fprintf(&sb, "\n[Draft]\n%s\n", content)

	text := evidence.AggregatedText
	if len(text) > maxEvidenceChars {
		text = text[:maxEvidenceChars]
	}
	fmt.Fprintf(&sb, "\n[Evidence]\n%s\n", text)

	return v.completer.Complete(ctx, []provider.Message{
		{Role: "user", Content: sb.String()},
	}, 700, 0.1)
}

func firstChars(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}
