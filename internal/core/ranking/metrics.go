package ranking

import (
	"sort"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// Confidence estimates how well a retrieved set answers the query. Weighted
// sum of top similarity, mean similarity of the five highest-similarity
// chunks, inverted score drop-off and query-term coverage; clamped to [0,1].
// Input order is irrelevant; empty input yields exactly 0.
func Confidence(query string, chunks []domain.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	head := make([]domain.Chunk, len(chunks))
	copy(head, chunks)
	sort.Slice(head, func(i, j int) bool {
		return head[i].Similarity > head[j].Similarity
	})

	top := len(head)
	if top > 5 {
		top = 5
	}
	head = head[:top]

	topSim := head[0].Similarity
	sum := 0.0
	for _, chunk := range head {
		sum += chunk.Similarity
	}
	meanTop := sum / float64(top)

	dropOff := 0.0
	if topSim > 0 {
		dropOff = (topSim - head[top-1].Similarity) / topSim
	}

	coverage := Coverage(query, head)

	score := 0.3*topSim + 0.3*meanTop + 0.2*(1-dropOff) + 0.2*coverage
	return clamp01(score)
}

// Coverage is the fraction of query terms (length > 3) that appear in the
// content of the given chunks.
func Coverage(query string, chunks []domain.Chunk) float64 {
	queryTerms := tokenizeMin(query, 4)
	if len(queryTerms) == 0 {
		return 0
	}

	seen := make(map[string]struct{})
	for _, chunk := range chunks {
		for term := range termSet(chunk.Content, 4) {
			seen[term] = struct{}{}
		}
	}

	matched := 0
	for _, term := range queryTerms {
		if _, ok := seen[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// Diversity measures redundancy across a chunk set: unique source documents
// weighted 0.5 and inverse average term frequency weighted 0.5, clamped to
// [0,1]. A set of identical chunks from one document approaches 0; chunks
// with disjoint vocabularies approach 1.
func Diversity(chunks []domain.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	docs := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		docs[chunk.DocumentID] = struct{}{}
	}
	docRatio := float64(len(docs)) / float64(len(chunks))

	totalOccurrences := 0
	uniqueTerms := make(map[string]struct{})
	for _, chunk := range chunks {
		tokens := Tokenize(chunk.Content)
		totalOccurrences += len(tokens)
		for _, token := range tokens {
			uniqueTerms[token] = struct{}{}
		}
	}

	inverseAvgTF := 0.0
	if len(uniqueTerms) > 0 && totalOccurrences > 0 {
		avgTF := float64(totalOccurrences) / float64(len(uniqueTerms))
		inverseAvgTF = 1 / avgTF
	}

	return clamp01(0.5*docRatio + 0.5*inverseAvgTF)
}

// Coherence is the mean Jaccard overlap (terms length > 4) between
// consecutive chunks; 1.0 for single-chunk sets, 0 for empty ones.
func Coherence(chunks []domain.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	if len(chunks) == 1 {
		return 1
	}

	sum := 0.0
	prev := termSet(chunks[0].Content, 5)
	for _, chunk := range chunks[1:] {
		next := termSet(chunk.Content, 5)
		sum += jaccard(prev, next)
		prev = next
	}
	return clamp01(sum / float64(len(chunks)-1))
}

// StageMetrics assembles the quality metrics recorded per retrieval stage.
func StageMetrics(query string, chunks []domain.Chunk) domain.StageMetrics {
	if len(chunks) == 0 {
		return domain.StageMetrics{}
	}

	topSim := 0.0
	sum := 0.0
	for _, chunk := range chunks {
		if chunk.Similarity > topSim {
			topSim = chunk.Similarity
		}
		sum += chunk.Similarity
	}

	return domain.StageMetrics{
		AvgSimilarity: clamp01(sum / float64(len(chunks))),
		TopSimilarity: clamp01(topSim),
		Coverage:      clamp01(Coverage(query, chunks)),
		Diversity:     Diversity(chunks),
		Coherence:     Coherence(chunks),
	}
}
