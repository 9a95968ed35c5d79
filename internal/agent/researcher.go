package agent

import (
	"context"
	"strings"

	"github.com/mkovalev/finsight/internal/chunk"
	"github.com/mkovalev/finsight/internal/index"
)

const (
	// maxSnippets caps the evidence set per unit of work.
	maxSnippets = 8
	// minCoverage is the escalation threshold: fewer deduplicated snippets
	// than this triggers a second pass with the plan's fallback queries.
	minCoverage = 3
	// signatureChars is the content-prefix length used to deduplicate
	// near-identical chunks.
	signatureChars = 160

	snippetSeparator = "\n\n---\n\n"
)

// Evidence is the deduplicated retrieval output for one unit of work.
type Evidence struct {
	Snippets       []string
	AggregatedText string
}

// CoverageScore reports how many snippets were gathered. Observability
// only; control flow uses the escalation threshold internally.
func (e Evidence) CoverageScore() int {
	return len(e.Snippets)
}

// Researcher gathers evidence for a Plan by fusing semantic and lexical
// search over a built index.
type Researcher struct {
	embedder index.Embedder
}

// NewResearcher creates a Researcher using the given embedding capability
// for query vectors.
func NewResearcher(embedder index.Embedder) *Researcher {
	return &Researcher{embedder: embedder}
}

// Gather runs hybrid retrieval: semantic top-4 per retrieval query plus
// lexical top-4 over all queries, deduplicated by content-prefix
// signature. If fewer than 3 distinct snippets survive, the plan's
// fallback queries are tried at top-3 as a recall backstop. The result is
// capped at 8 snippets.
func (r *Researcher) Gather(ctx context.Context, ix *index.Index, plan Plan) (Evidence, error) {
	merged, err := r.pass(ctx, ix, plan.RetrievalQueries, 4)
	if err != nil {
		return Evidence{}, err
	}

	if len(merged) < minCoverage && len(plan.FallbackQueries) > 0 {
		fallback, err := r.pass(ctx, ix, plan.FallbackQueries, 3)
		if err != nil {
			return Evidence{}, err
		}
		merged = dedupe(append(merged, fallback...))
	}

	if len(merged) > maxSnippets {
		merged = merged[:maxSnippets]
	}

	snippets := make([]string, len(merged))
	for i, c := range merged {
		snippets[i] = c.Text
	}
	return Evidence{
		Snippets:       snippets,
		AggregatedText: strings.Join(snippets, snippetSeparator),
	}, nil
}

// pass runs one semantic+lexical retrieval round and returns the
// deduplicated union.
func (r *Researcher) pass(ctx context.Context, ix *index.Index, queries []string, topK int) ([]chunk.Chunk, error) {
	var matches []chunk.Chunk
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		found, err := ix.Search(ctx, r.embedder, q, topK)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}

	matches = append(matches, ix.Lexical(queries, topK)...)
	return dedupe(matches), nil
}

// dedupe drops chunks whose content-prefix signature was already seen,
// preserving order. Near-duplicate chunks from overlapping windows would
// otherwise dominate the evidence.
func dedupe(chunks []chunk.Chunk) []chunk.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := chunks[:0:0]
	for _, c := range chunks {
		sig := c.Text
		if len(sig) > signatureChars {
			sig = sig[:signatureChars]
		}
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, c)
	}
	return out
}
