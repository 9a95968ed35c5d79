package extract

import (
	"errors"
	"testing"
)

func TestTextPlain(t *testing.T) {
	got, err := Text([]byte("Revenue grew  by   12%.\n\n\n\nMargins held."))
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	want := "Revenue grew by 12%.\n\nMargins held."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTextEmpty(t *testing.T) {
	if _, err := Text([]byte("   \n\t ")); !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
}

func TestTextCorruptPDF(t *testing.T) {
	// Carries the PDF magic but is not a parseable document.
	if _, err := Text([]byte("%PDF-1.4 garbage")); err == nil {
		t.Error("expected error for corrupt PDF input")
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"control chars", "a\x00b\x07c", "a b c"},
		{"crlf", "one\r\ntwo", "one\ntwo"},
		{"tabs and spaces", "a \t  b", "a b"},
		{"blank line runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trim", "  padded  ", "padded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
