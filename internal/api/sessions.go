package api

import (
	"sync"

	"github.com/mkovalev/finsight/internal/index"
)

// Session retains the retrieval index built during report generation so
// follow-up questions reuse it without re-embedding the document.
// Sessions live for the process lifetime only.
type Session struct {
	Index   *index.Index
	Company string
}

// Sessions is a concurrency-safe document-ID to session registry.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]Session)}
}

// Put registers (or replaces) the session for a document ID.
func (s *Sessions) Put(docID string, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[docID] = session
}

// Get returns the session for a document ID.
func (s *Sessions) Get(docID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[docID]
	return session, ok
}
