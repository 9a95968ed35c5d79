package specialized

import "testing"

func TestNormalizeSection(t *testing.T) {
	in := "## Overview\n- **Revenue** grew.\n\n- Revenue grew.\n– Margins held."
	got := normalizeSection(in)
	want := "• Overview\n• Revenue grew.\n• Margins held."
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestNormalizeSectionEmpty(t *testing.T) {
	if got := normalizeSection("\n \n"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	got := normalizeAnswer("  `Revenue`  grew\n*strongly*. ")
	if got != "Revenue grew strongly." {
		t.Errorf("got %q", got)
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("  one\n\ntwo\tthree  ")
	if got != "one two three" {
		t.Errorf("got %q", got)
	}
}
