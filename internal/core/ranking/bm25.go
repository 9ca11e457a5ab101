package ranking

import (
	"math"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// CorpusStats holds the statistics BM25 needs over the current candidate
// pool. There is no durable inverted index; stats are recomputed from the
// pool each time scoring is requested.
type CorpusStats struct {
	docCount     int
	avgDocLength float64
	docFreq      map[string]int
}

// NewCorpusStats computes document frequencies and average document length
// over the given pool.
func NewCorpusStats(chunks []domain.Chunk) CorpusStats {
	stats := CorpusStats{
		docCount: len(chunks),
		docFreq:  make(map[string]int),
	}
	if len(chunks) == 0 {
		return stats
	}

	totalLength := 0
	for _, chunk := range chunks {
		tokens := Tokenize(chunk.Content)
		totalLength += len(tokens)
		seen := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			stats.docFreq[token]++
		}
	}
	stats.avgDocLength = float64(totalLength) / float64(len(chunks))
	return stats
}

// BM25 scores a chunk against the query using the pool statistics. Terms
// absent from the chunk contribute zero.
func BM25(query string, stats CorpusStats, chunk domain.Chunk) float64 {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 || stats.docCount == 0 {
		return 0
	}

	docTokens := Tokenize(chunk.Content)
	if len(docTokens) == 0 {
		return 0
	}
	tf := termFrequencies(docTokens)
	docLen := float64(len(docTokens))

	avgLen := stats.avgDocLength
	if avgLen <= 0 {
		avgLen = docLen
	}

	score := 0.0
	for _, term := range queryTerms {
		freq := float64(tf[term])
		if freq == 0 {
			continue
		}
		df := float64(stats.docFreq[term])
		n := float64(stats.docCount)
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		tfNorm := freq * (bm25K1 + 1) / (freq + bm25K1*(1-bm25B+bm25B*(docLen/avgLen)))
		score += idf * tfNorm
	}
	return score
}

// BM25Scores scores every chunk of the pool against the query with shared
// pool statistics.
func BM25Scores(query string, chunks []domain.Chunk) []float64 {
	stats := NewCorpusStats(chunks)
	out := make([]float64, len(chunks))
	for i, chunk := range chunks {
		out[i] = BM25(query, stats, chunk)
	}
	return out
}
