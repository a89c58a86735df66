package index

import (
	"math"
	"sort"

	"github.com/portola-retreat/concierge/internal/domain"
)

// Rank scores every chunk in the index by cosine similarity to the query
// embedding and returns at most k results in strictly non-increasing score
// order. Ties keep the store order (stable sort) so results are
// deterministic across runs.
//
// The scan is O(n·d) over the whole store, which is the intended bound for
// a single event's corpus of at most a few thousand chunks.
func Rank(idx *domain.Index, query []float32, k int) []domain.ScoredChunk {
	if idx == nil || len(idx.Chunks) == 0 || k <= 0 {
		return nil
	}

	scored := make([]domain.ScoredChunk, len(idx.Chunks))
	for i := range idx.Chunks {
		scored[i] = domain.ScoredChunk{
			Chunk: idx.Chunks[i],
			Score: Cosine(query, idx.Chunks[i].Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Cosine computes the cosine similarity dot(a,b) / (‖a‖·‖b‖) of two
// vectors. Zero-norm or length-mismatched inputs score 0, never NaN.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
