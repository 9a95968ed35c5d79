package agent

import (
	"strings"
	"testing"
)

func TestRunToolsIgnoresUnknownNames(t *testing.T) {
	plan := Plan{ToolSuggestions: []string{"numeric_summary", "crystal_ball", "keyword_coverage"}}
	outputs := RunTools(plan, []string{"revenue was 100"})

	if len(outputs) != 2 {
		t.Fatalf("got %d tool outputs, want 2", len(outputs))
	}
	if outputs[0].Name != "numeric_summary" || outputs[1].Name != "keyword_coverage" {
		t.Errorf("tool order = %s, %s; want suggestion order", outputs[0].Name, outputs[1].Name)
	}
}

func TestRunToolsEmptySuggestions(t *testing.T) {
	if outputs := RunTools(Plan{ToolSuggestions: []string{}}, []string{"text"}); outputs != nil {
		t.Errorf("got %v, want nil for no suggestions", outputs)
	}
}

func TestNumericSummary(t *testing.T) {
	snippets := []string{
		"Revenue was $4.2 billion.\nNo numbers here.\nMargin improved to 23%.",
		"Revenue was $4.2 billion.\nHeadcount reached 1,200.",
	}
	got := numericSummary(Plan{}, snippets)

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 unique numeric lines:\n%s", len(lines), got)
	}
	if lines[0] != "Revenue was $4.2 billion." {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestNumericSummaryLimit(t *testing.T) {
	var snippets []string
	for i := 0; i < 10; i++ {
		snippets = append(snippets, strings.Repeat("x", i)+" figure 9")
	}
	got := numericSummary(Plan{}, snippets)
	if lines := strings.Split(got, "\n"); len(lines) != 6 {
		t.Errorf("got %d lines, want cap of 6", len(lines))
	}
}

func TestNumericSummaryNoDigits(t *testing.T) {
	got := numericSummary(Plan{}, []string{"no figures at all"})
	if !strings.Contains(got, "no numeric highlights") {
		t.Errorf("got %q, want the no-highlights message", got)
	}
}

func TestKeywordCoverage(t *testing.T) {
	plan := Plan{AnalysisFocus: []string{"Revenue growth", "litigation"}}
	snippets := []string{"Revenue grew. Revenue growth was strong.", "No litigation pending."}

	got := keywordCoverage(plan, snippets)
	for _, want := range []string{"growth: 1", "litigation: 1", "revenue: 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	// Terms are reported alphabetically.
	lines := strings.Split(got, "\n")
	if !strings.HasPrefix(lines[0], "growth:") {
		t.Errorf("first line = %q, want sorted order", lines[0])
	}
}

func TestKeywordCoverageNoFocus(t *testing.T) {
	got := keywordCoverage(Plan{}, []string{"some text"})
	if !strings.Contains(got, "no analysis focus terms") {
		t.Errorf("got %q, want the no-terms message", got)
	}
}
