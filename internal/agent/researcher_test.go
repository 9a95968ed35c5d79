package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mkovalev/finsight/internal/chunk"
	"github.com/mkovalev/finsight/internal/index"
)

// mockEmbedder returns a fixed vector per text and counts embed calls.
// Index building embeds batches concurrently, so the counter is guarded.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, ok := m.vectors[t]
		if !ok {
			vec = []float32{0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func buildTestIndex(t *testing.T, embedder index.Embedder, texts ...string) *index.Index {
	t.Helper()
	chunks := make([]chunk.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = chunk.Chunk{ID: fmt.Sprintf("c%d", i), Text: text}
	}
	ix, err := index.Build(context.Background(), embedder, chunks)
	if err != nil {
		t.Fatalf("building index: %v", err)
	}
	return ix
}

func TestGatherDeduplicatesByPrefix(t *testing.T) {
	prefix := strings.Repeat("a", signatureChars)
	embedder := &mockEmbedder{vectors: map[string][]float32{"q": {0, 1}}}
	ix := buildTestIndex(t, embedder,
		prefix+" tail one",
		prefix+" tail two",
		"distinct revenue text",
		"another distinct passage",
	)

	r := NewResearcher(embedder)
	ev, err := r.Gather(context.Background(), ix, Plan{
		RetrievalQueries: []string{"q"},
		FallbackQueries:  []string{},
	})
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	// The two identical-prefix chunks collapse into one snippet.
	seen := 0
	for _, s := range ev.Snippets {
		if strings.HasPrefix(s, prefix) {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("got %d identical-prefix snippets, want 1 after dedup", seen)
	}
}

func TestGatherEscalatesOnLowCoverage(t *testing.T) {
	// Two chunks only: the first pass cannot reach the coverage threshold,
	// so the fallback queries must be embedded too.
	embedder := &mockEmbedder{}
	ix := buildTestIndex(t, embedder, "alpha text", "beta text")

	buildCalls := embedder.calls
	r := NewResearcher(embedder)
	_, err := r.Gather(context.Background(), ix, Plan{
		RetrievalQueries: []string{"primary"},
		FallbackQueries:  []string{"fallback one", "fallback two"},
	})
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	queryEmbeds := embedder.calls - buildCalls
	if queryEmbeds != 3 {
		t.Errorf("embedded %d queries, want 3 (primary plus both fallbacks)", queryEmbeds)
	}
}

func TestGatherNoEscalationAtCoverage(t *testing.T) {
	embedder := &mockEmbedder{}
	ix := buildTestIndex(t, embedder, "one", "two", "three", "four")

	buildCalls := embedder.calls
	r := NewResearcher(embedder)
	ev, err := r.Gather(context.Background(), ix, Plan{
		RetrievalQueries: []string{"primary"},
		FallbackQueries:  []string{"fallback"},
	})
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	if queryEmbeds := embedder.calls - buildCalls; queryEmbeds != 1 {
		t.Errorf("embedded %d queries, want 1 when coverage is sufficient", queryEmbeds)
	}
	if ev.CoverageScore() < minCoverage {
		t.Errorf("coverage = %d, want at least %d", ev.CoverageScore(), minCoverage)
	}
}

func TestGatherCapsSnippets(t *testing.T) {
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("unique snippet number %d with enough words", i)
	}
	embedder := &mockEmbedder{}
	ix := buildTestIndex(t, embedder, texts...)

	r := NewResearcher(embedder)
	ev, err := r.Gather(context.Background(), ix, Plan{
		RetrievalQueries: []string{"snippet", "number", "unique"},
	})
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(ev.Snippets) > maxSnippets {
		t.Errorf("got %d snippets, want at most %d", len(ev.Snippets), maxSnippets)
	}
}

func TestGatherAggregatesWithSeparator(t *testing.T) {
	embedder := &mockEmbedder{}
	ix := buildTestIndex(t, embedder, "first passage", "second passage", "third passage", "fourth passage")

	r := NewResearcher(embedder)
	ev, err := r.Gather(context.Background(), ix, Plan{RetrievalQueries: []string{"passage"}})
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(ev.Snippets) > 1 && !strings.Contains(ev.AggregatedText, snippetSeparator) {
		t.Error("aggregated text missing the snippet separator")
	}
}

func TestGatherSkipsBlankQueries(t *testing.T) {
	embedder := &mockEmbedder{}
	ix := buildTestIndex(t, embedder, "one", "two", "three", "four")

	buildCalls := embedder.calls
	r := NewResearcher(embedder)
	if _, err := r.Gather(context.Background(), ix, Plan{
		RetrievalQueries: []string{"", "  ", "real query"},
	}); err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if queryEmbeds := embedder.calls - buildCalls; queryEmbeds != 1 {
		t.Errorf("embedded %d queries, want only the non-blank one", queryEmbeds)
	}
}
