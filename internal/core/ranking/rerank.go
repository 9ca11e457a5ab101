package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// RerankWeights carries the configurable blend of the hybrid strategy. The
// zero value resolves to the authoritative defaults.
type RerankWeights struct {
	SemanticWeight float64
	KeywordWeight  float64
}

func (w RerankWeights) normalize() RerankWeights {
	if w.SemanticWeight <= 0 {
		w.SemanticWeight = 0.8
	}
	if w.KeywordWeight <= 0 {
		w.KeywordWeight = 0.2
	}
	return w
}

// Rerank reorders the candidate pool with the chosen strategy and truncates
// to topK. When the pool already fits within topK the input is returned
// unchanged. A score that comes out non-finite for an individual chunk falls
// back to that chunk's original similarity; the batch is never aborted.
func Rerank(query string, chunks []domain.Chunk, strategy domain.RerankStrategy, topK int, weights RerankWeights) []domain.Chunk {
	if topK <= 0 || len(chunks) <= topK {
		return chunks
	}

	scores := scoreForStrategy(query, chunks, strategy, weights.normalize())

	type scored struct {
		chunk domain.Chunk
		score float64
		order int
	}
	ranked := make([]scored, len(chunks))
	for i, chunk := range chunks {
		score := scores[i]
		if math.IsNaN(score) || math.IsInf(score, 0) {
			score = chunk.Similarity
		}
		ranked[i] = scored{chunk: chunk, score: score, order: i}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]domain.Chunk, topK)
	for i := range out {
		out[i] = ranked[i].chunk
	}
	return out
}

func scoreForStrategy(query string, chunks []domain.Chunk, strategy domain.RerankStrategy, weights RerankWeights) []float64 {
	switch strategy {
	case domain.RerankBM25:
		return BM25Scores(query, chunks)
	case domain.RerankKeywordBoost:
		return keywordBoostScores(query, chunks)
	case domain.RerankSemantic:
		return semanticScores(query, chunks)
	case domain.RerankHybrid:
		return hybridScores(query, chunks, weights)
	default:
		out := make([]float64, len(chunks))
		for i, chunk := range chunks {
			out[i] = chunk.Similarity
		}
		return out
	}
}

// keywordBoostScores rewards exact phrase matches quadratically by phrase
// length, then blends the normalized phrase score with similarity.
func keywordBoostScores(query string, chunks []domain.Chunk) []float64 {
	raw := phraseMatchScores(query, chunks)
	maxRaw := 0.0
	for _, score := range raw {
		if score > maxRaw {
			maxRaw = score
		}
	}

	out := make([]float64, len(chunks))
	for i, chunk := range chunks {
		normalized := 0.0
		if maxRaw > 0 {
			normalized = raw[i] / maxRaw
		}
		out[i] = 0.6*chunk.Similarity + 0.4*normalized
	}
	return out
}

// phraseMatchScores sums occurrences·length² over all matched query n-grams.
func phraseMatchScores(query string, chunks []domain.Chunk) []float64 {
	phrases := queryNGrams(query)

	out := make([]float64, len(chunks))
	for i, chunk := range chunks {
		content := " " + strings.Join(tokenizeMin(chunk.Content, 1), " ") + " "
		score := 0.0
		for _, phrase := range phrases {
			occurrences := strings.Count(content, " "+phrase.text+" ")
			if occurrences > 0 {
				score += float64(occurrences) * float64(phrase.words*phrase.words)
			}
		}
		out[i] = score
	}
	return out
}

type ngram struct {
	text  string
	words int
}

// queryNGrams generates all word n-grams of the query for n = 1..min(3, words).
func queryNGrams(query string) []ngram {
	words := tokenizeMin(query, 1)
	if len(words) == 0 {
		return nil
	}
	maxN := 3
	if len(words) < maxN {
		maxN = len(words)
	}

	out := make([]ngram, 0, len(words)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, ngram{
				text:  strings.Join(words[i:i+n], " "),
				words: n,
			})
		}
	}
	return out
}

func semanticScores(query string, chunks []domain.Chunk) []float64 {
	out := make([]float64, len(chunks))
	for i, chunk := range chunks {
		coverage := Coverage(query, chunks[i:i+1])
		lengthScore := float64(len(chunk.Content)) / 1000
		if lengthScore > 1 {
			lengthScore = 1
		}
		sentences := float64(strings.Count(chunk.Content, ".") + strings.Count(chunk.Content, "!") + strings.Count(chunk.Content, "?"))
		coherenceApprox := sentences / 5
		if coherenceApprox > 1 {
			coherenceApprox = 1
		}
		out[i] = 0.7*chunk.Similarity + 0.2*coverage + 0.05*lengthScore + 0.05*coherenceApprox
	}
	return out
}

// hybridScores normalizes bm25 and keyword scores against their own pool
// maxima before blending them with similarity.
func hybridScores(query string, chunks []domain.Chunk, weights RerankWeights) []float64 {
	bm25 := BM25Scores(query, chunks)
	keyword := phraseMatchScores(query, chunks)

	normalizeInPlace(bm25)
	normalizeInPlace(keyword)

	out := make([]float64, len(chunks))
	for i, chunk := range chunks {
		out[i] = weights.SemanticWeight*chunk.Similarity +
			weights.KeywordWeight*(0.6*bm25[i]+0.4*keyword[i])
	}
	return out
}

func normalizeInPlace(scores []float64) {
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max <= 0 {
		for i := range scores {
			scores[i] = 0
		}
		return
	}
	for i := range scores {
		scores[i] = scores[i] / max
	}
}
