package service

import "github.com/portola-retreat/concierge/internal/domain"

// GateResult is the confidence gate's verdict on retrieved evidence.
//
// When Answerable is true, Context is the strong set and may ground a
// generative answer. When false, Context holds the top fallback chunks for
// diagnostic display only and must never be passed to the model.
type GateResult struct {
	Context    []domain.ScoredChunk
	Answerable bool
}

// Gate decides whether retrieval evidence is strong enough to ground a
// generative answer. Strong set = chunks scoring at least threshold; a
// non-empty strong set answers, an empty one short-circuits with at most
// minFallbackCount diagnostic chunks. No generative call is made without
// at least one chunk clearing the bar.
func Gate(scored []domain.ScoredChunk, threshold float64, minFallbackCount int) GateResult {
	var strong []domain.ScoredChunk
	for _, sc := range scored {
		if sc.Score >= threshold {
			strong = append(strong, sc)
		}
	}

	if len(strong) > 0 {
		return GateResult{Context: strong, Answerable: true}
	}

	fallback := scored
	if minFallbackCount >= 0 && len(fallback) > minFallbackCount {
		fallback = fallback[:minFallbackCount]
	}
	return GateResult{Context: fallback, Answerable: false}
}
