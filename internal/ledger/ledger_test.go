package ledger

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppendCapsEntries(t *testing.T) {
	l := &Ledger{}
	for i := 0; i < maxEntries+10; i++ {
		l.Append("planner", fmt.Sprintf("entry %d", i))
	}

	entries := l.Entries()
	if len(entries) != maxEntries {
		t.Fatalf("got %d entries, want %d", len(entries), maxEntries)
	}
	if entries[0].Content != "entry 10" {
		t.Errorf("oldest retained entry = %q, want %q", entries[0].Content, "entry 10")
	}
	if entries[len(entries)-1].Content != fmt.Sprintf("entry %d", maxEntries+9) {
		t.Errorf("newest entry = %q, want the last appended", entries[len(entries)-1].Content)
	}
}

func TestAppendTruncatesContent(t *testing.T) {
	l := &Ledger{}
	l.Append("analyst", strings.Repeat("x", maxEntryChars+100))

	entries := l.Entries()
	if got := len(entries[0].Content); got != maxEntryChars {
		t.Errorf("stored entry length = %d, want %d", got, maxEntryChars)
	}
}

func TestContextEmpty(t *testing.T) {
	l := &Ledger{}
	if got := l.Context(); got != "" {
		t.Errorf("Context of empty ledger = %q, want empty", got)
	}
}

func TestContextWindow(t *testing.T) {
	l := &Ledger{}
	for i := 0; i < 12; i++ {
		l.Append("researcher", fmt.Sprintf("finding %d", i))
	}

	ctx := l.Context()
	lines := strings.Split(ctx, "\n")
	if len(lines) != contextEntries {
		t.Fatalf("context has %d lines, want %d", len(lines), contextEntries)
	}
	if lines[0] != "[researcher] finding 4" {
		t.Errorf("first context line = %q, want the 8th-newest entry", lines[0])
	}
	if lines[len(lines)-1] != "[researcher] finding 11" {
		t.Errorf("last context line = %q, want the newest entry", lines[len(lines)-1])
	}
}

func TestContextTruncatesEntries(t *testing.T) {
	l := &Ledger{}
	l.Append("analyst", strings.Repeat("y", maxEntryChars))

	ctx := l.Context()
	want := "[analyst] " + strings.Repeat("y", contextEntryChars)
	if ctx != want {
		t.Errorf("context entry length = %d, want %d plus agent tag", len(ctx), len(want))
	}
}

func TestServiceNormalizesCompanyKey(t *testing.T) {
	svc := NewService()
	a := svc.For("ACME Corp")
	b := svc.For("  acme corp ")
	if a != b {
		t.Error("differently-cased company names got separate ledgers")
	}

	c := svc.For("other co")
	if a == c {
		t.Error("distinct companies share a ledger")
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  Tesla Inc  "); got != "tesla inc" {
		t.Errorf("NormalizeKey = %q, want %q", got, "tesla inc")
	}
}
