// Package chunk splits cleaned document text into overlapping retrieval
// units shared by both generation pipelines.
package chunk

import (
	"strings"

	"github.com/google/uuid"
)

// Chunk is a bounded span of document text, the unit of retrieval.
// Immutable once created.
type Chunk struct {
	ID   string
	Text string
}

// Default window parameters for the coordinated pipeline. The specialized
// pipeline passes its own larger size and overlap.
const (
	DefaultSize    = 220
	DefaultOverlap = 40
)

// Split breaks text into word-window chunks of size words, each window
// overlapping the previous one by overlap words. Returns nil for blank
// input. A non-positive size falls back to DefaultSize; overlap is clamped
// below size so the window always advances.
func Split(text string, size, overlap int) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	step := size - overlap
	var chunks []Chunk
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			ID:   uuid.New().String(),
			Text: strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
