package agent

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ToolOutput is the result of one deterministic analyzer run.
type ToolOutput struct {
	Name   string
	Output string
}

// toolFunc is a deterministic, non-LLM analyzer over plan and evidence.
type toolFunc func(plan Plan, snippets []string) string

// toolRegistry maps tool names usable in Plan.ToolSuggestions to their
// implementations. Unknown names are silently ignored.
var toolRegistry = map[string]toolFunc{
	"numeric_summary":  numericSummary,
	"keyword_coverage": keywordCoverage,
}

// RunTools invokes the tools named in the plan against the gathered
// snippets, in suggestion order. Tool outputs are descriptive aids for
// generation only; they never alter retrieval or planning.
func RunTools(plan Plan, snippets []string) []ToolOutput {
	var outputs []ToolOutput
	for _, name := range plan.ToolSuggestions {
		fn, ok := toolRegistry[name]
		if !ok {
			continue
		}
		outputs = append(outputs, ToolOutput{Name: name, Output: fn(plan, snippets)})
	}
	return outputs
}

var digitRe = regexp.MustCompile(`\d`)

// numericSummary keeps the unique snippet lines containing at least one
// digit, up to 6 of them.
func numericSummary(_ Plan, snippets []string) string {
	seen := make(map[string]bool)
	var lines []string
	for _, s := range snippets {
		for _, line := range strings.Split(s, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || !digitRe.MatchString(line) || seen[line] {
				continue
			}
			seen[line] = true
			lines = append(lines, line)
			if len(lines) == 6 {
				return strings.Join(lines, "\n")
			}
		}
	}
	if len(lines) == 0 {
		return "no numeric highlights found in the retrieved evidence"
	}
	return strings.Join(lines, "\n")
}

// keywordCoverage counts literal occurrences of each analysis-focus term
// across all snippets, reported as term: count lines.
func keywordCoverage(plan Plan, snippets []string) string {
	var terms []string
	seen := make(map[string]bool)
	for _, focus := range plan.AnalysisFocus {
		for _, t := range strings.Fields(strings.ToLower(focus)) {
			t = strings.Trim(t, ".,;:()")
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return "no analysis focus terms to check"
	}

	joined := strings.ToLower(strings.Join(snippets, "\n"))
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		re := regexp.MustCompile(regexp.QuoteMeta(t))
		counts[t] = len(re.FindAllStringIndex(joined, -1))
	}

	sort.Strings(terms)
	var sb strings.Builder
	for _, t := range terms {
		fmt.Fprintf(&sb, "%s: %d\n", t, counts[t])
	}
	return strings.TrimRight(sb.String(), "\n")
}
