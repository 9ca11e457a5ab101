package ranking

import (
	"sort"
	"strings"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// SelectMMR performs maximal-marginal-relevance selection: greedy trade-off
// between relevance (chunk similarity) and redundancy against the already
// selected set. Returns min(k, len(candidates)) chunks in selection order.
// lambda=1 degenerates to exact top-k by similarity.
func SelectMMR(candidates []domain.Chunk, k int, lambda float64) []domain.Chunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	lambda = clamp01(lambda)

	// Stable sort keeps original relevance order as the tie-break.
	pool := make([]domain.Chunk, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Similarity > pool[j].Similarity
	})

	remaining := make([]mmrCandidate, len(pool))
	for i, chunk := range pool {
		remaining[i] = mmrCandidate{chunk: chunk, terms: termSet(chunk.Content, 3)}
	}

	selected := make([]domain.Chunk, 0, k)
	selectedTerms := make([]map[string]struct{}, 0, k)

	// Highest-relevance candidate is always taken first.
	selected = append(selected, remaining[0].chunk)
	selectedTerms = append(selectedTerms, remaining[0].terms)
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selectedTerms, lambda)
		for i := 1; i < len(remaining); i++ {
			score := mmrScore(remaining[i], selectedTerms, lambda)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx].chunk)
		selectedTerms = append(selectedTerms, remaining[bestIdx].terms)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

type mmrCandidate struct {
	chunk domain.Chunk
	terms map[string]struct{}
}

func mmrScore(candidate mmrCandidate, selected []map[string]struct{}, lambda float64) float64 {
	maxSim := 0.0
	for _, terms := range selected {
		if sim := jaccard(candidate.terms, terms); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*candidate.chunk.Similarity - (1-lambda)*maxSim
}

var (
	comprehensiveMarkers = []string{"all", "every", "comprehensive", "complete", "overall", "entire"}
	specificMarkers      = []string{"specific", "exact", "particular", "precisely"}
	comparisonMarkers    = []string{"compare", "versus", "vs", "difference", "between"}
)

// AdaptiveLambda picks the MMR relevance/diversity trade-off from query
// surface patterns; the caller-supplied fallback applies otherwise. Markers
// are matched per word with surrounding punctuation stripped, so "A vs. B"
// still reads as a comparison.
func AdaptiveLambda(query string, fallback float64) float64 {
	words := strings.Fields(strings.ToLower(query))
	contains := func(markers []string) bool {
		for _, w := range words {
			w = strings.Trim(w, ".,;:!?\"'()")
			for _, m := range markers {
				if w == m {
					return true
				}
			}
		}
		return false
	}

	switch {
	case contains(comprehensiveMarkers):
		return 0.5
	case contains(specificMarkers):
		return 0.9
	case contains(comparisonMarkers):
		return 0.6
	default:
		if fallback <= 0 || fallback > 1 {
			return 0.7
		}
		return fallback
	}
}
