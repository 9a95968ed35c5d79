// Package index builds an in-memory semantic vector index over document
// chunks and exposes nearest-neighbor and lexical search. One index is
// built per document generation and is read-only afterwards, so it can be
// shared across concurrent section generations without copying.
package index

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mkovalev/finsight/internal/chunk"
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// embedBatchSize is how many chunks go into one embedding request.
const embedBatchSize = 16

// Index owns an embedding vector per chunk plus the backing chunk list.
type Index struct {
	chunks  []chunk.Chunk
	vectors [][]float32
}

// Build embeds all chunks and returns a ready Index. Batches are embedded
// concurrently with bounded parallelism to avoid overwhelming the provider.
func Build(ctx context.Context, embedder Embedder, chunks []chunk.Chunk) (*Index, error) {
	vectors := make([][]float32, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(chunks); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Text
			}
			vecs, err := embedder.Embed(gCtx, texts)
			if err != nil {
				return fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Index{chunks: chunks, vectors: vectors}, nil
}

// Chunks exposes the backing chunk list for lexical search.
func (ix *Index) Chunks() []chunk.Chunk {
	return ix.chunks
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// scored pairs a chunk position with its similarity score during search.
type scored struct {
	pos   int
	score float32
}

// scoredHeap is a min-heap by score, keeping the current top-K candidates.
type scoredHeap []scored

func (h scoredHeap) Len() int            { return len(h) }
func (h scoredHeap) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x any)         { *h = append(*h, x.(scored)) }
func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Search embeds the query and returns the topK chunks most similar by
// cosine distance, best first.
func (ix *Index) Search(ctx context.Context, embedder Embedder, query string, topK int) ([]chunk.Chunk, error) {
	if topK <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding query: empty result")
	}
	queryVec := vecs[0]

	queryNorm := norm(queryVec)
	if queryNorm == 0 {
		return nil, nil
	}

	h := &scoredHeap{}
	heap.Init(h)
	for pos, vec := range ix.vectors {
		score := cosine(queryVec, vec, queryNorm)
		if h.Len() < topK {
			heap.Push(h, scored{pos: pos, score: score})
		} else if score > (*h)[0].score {
			(*h)[0] = scored{pos: pos, score: score}
			heap.Fix(h, 0)
		}
	}

	// Drain the min-heap into best-first order.
	results := make([]chunk.Chunk, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		item := heap.Pop(h).(scored)
		results[i] = ix.chunks[item.pos]
	}
	return results, nil
}

func norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// cosine computes the cosine similarity between a and b given a's
// precomputed norm. Mismatched lengths score zero.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, bSum float32
	for i := range a {
		dot += a[i] * b[i]
		bSum += b[i] * b[i]
	}
	bNorm := float32(math.Sqrt(float64(bSum)))
	if bNorm == 0 {
		return 0
	}
	return dot / (aNorm * bNorm)
}
