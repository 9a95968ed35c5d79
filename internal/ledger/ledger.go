// Package ledger keeps a bounded, append-only record of what each pipeline
// stage produced, keyed by company identity. A ledger persists for the
// process lifetime only and provides cross-call context for later
// invocations about the same company.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// maxEntries caps a single ledger; the oldest entries drop first.
	maxEntries = 24
	// maxEntryChars truncates stored entry content.
	maxEntryChars = 1200
	// contextEntries and contextEntryChars shape the prompt-context view.
	contextEntries    = 8
	contextEntryChars = 500
)

// Entry is one recorded agent output.
type Entry struct {
	Agent     string
	Content   string
	Timestamp time.Time
}

// Ledger is a bounded append-only entry list for one company.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
}

// Append records an agent output, truncating content and dropping the
// oldest entries past the cap.
func (l *Ledger) Append(agent, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Agent:     agent,
		Content:   truncate(content, maxEntryChars),
		Timestamp: time.Now().UTC(),
	})
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
}

// Entries returns a copy of all retained entries, oldest first.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Context formats the most recent entries for inclusion in a prompt:
// at most 8 entries, each truncated to 500 characters. Returns "" for an
// empty ledger.
func (l *Ledger) Context() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return ""
	}
	start := len(l.entries) - contextEntries
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	for _, e := range l.entries[start:] {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Agent, truncate(e.Content, contextEntryChars))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Service hands out per-company ledgers. Company identity is normalized
// (lowercased, trimmed) so "ACME Corp" and "acme corp " share history.
type Service struct {
	mu      sync.Mutex
	ledgers map[string]*Ledger
}

// NewService creates an empty ledger registry.
func NewService() *Service {
	return &Service{ledgers: make(map[string]*Ledger)}
}

// NormalizeKey returns the canonical ledger key for a company name.
func NormalizeKey(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}

// For returns the ledger for the given company, creating it on first use.
func (s *Service) For(company string) *Ledger {
	key := NormalizeKey(company)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[key]
	if !ok {
		l = &Ledger{}
		s.ledgers[key] = l
	}
	return l
}
