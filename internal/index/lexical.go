package index

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mkovalev/finsight/internal/chunk"
)

var keywordSplit = regexp.MustCompile(`[,;\-]+`)

// Keywords splits queries into trimmed, non-empty keyword tokens on
// commas, semicolons, and hyphens.
func Keywords(queries []string) []string {
	var tokens []string
	for _, q := range queries {
		for _, t := range keywordSplit.Split(q, -1) {
			t = strings.TrimSpace(t)
			if t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens
}

// Lexical scores every chunk by counting case-insensitive occurrences of
// each query keyword and returns the topK chunks with a positive score,
// best first. This is the keyword companion to vector Search; it catches
// exact terms (tickers, line items) that embeddings can blur.
func (ix *Index) Lexical(queries []string, topK int) []chunk.Chunk {
	if topK <= 0 || len(ix.chunks) == 0 {
		return nil
	}

	keywords := Keywords(queries)
	if len(keywords) == 0 {
		return nil
	}

	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(kw)))
	}

	type hit struct {
		pos   int
		score int
	}
	var hits []hit
	for pos, c := range ix.chunks {
		score := 0
		for _, p := range patterns {
			score += len(p.FindAllStringIndex(c.Text, -1))
		}
		if score > 0 {
			hits = append(hits, hit{pos: pos, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]chunk.Chunk, len(hits))
	for i, h := range hits {
		results[i] = ix.chunks[h.pos]
	}
	return results
}
