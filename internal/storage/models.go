package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Document is the metadata of one analyzed document. Raw document bytes
// are never persisted; only what is needed to list and key past analyses.
type Document struct {
	ID         string
	Company    string
	Title      string
	ChunkCount int
	UploadedAt time.Time
}

// Report is one persisted generation result for a document.
type Report struct {
	ID             string
	DocumentID     string
	Company        string
	Mode           string
	StrategyName   string
	Fallback       bool
	OriginalMode   string
	FallbackReason string
	SectionsJSON   string
	CreatedAt      time.Time
}

// Answer is one persisted question/answer exchange for a document.
type Answer struct {
	ID         string
	DocumentID string
	Company    string
	Mode       string
	Question   string
	Answer     string
	Fallback   bool
	CreatedAt  time.Time
}
