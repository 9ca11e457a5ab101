package ranking

import (
	"fmt"
	"testing"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

func TestConfidenceEmptySetIsZero(t *testing.T) {
	if got := Confidence("any query", nil); got != 0 {
		t.Fatalf("confidence of empty set must be exactly 0, got %f", got)
	}
}

func TestConfidenceWithinUnitInterval(t *testing.T) {
	sets := [][]domain.Chunk{
		{chunkOf("1", "quarterly revenue growth numbers", 0.95)},
		{
			chunkOf("1", "quarterly revenue growth numbers", 0.9),
			chunkOf("2", "revenue detail", 0.85),
			chunkOf("3", "growth analysis", 0.8),
			chunkOf("4", "unrelated", 0.2),
			chunkOf("5", "noise", 0.05),
		},
	}
	for i, set := range sets {
		got := Confidence("revenue growth", set)
		if got < 0 || got > 1 {
			t.Fatalf("set %d: confidence %f out of [0,1]", i, got)
		}
	}
}

func TestConfidenceRewardsCoverageAndFlatness(t *testing.T) {
	flat := []domain.Chunk{
		chunkOf("1", "revenue growth detail", 0.9),
		chunkOf("2", "revenue growth context", 0.88),
	}
	steep := []domain.Chunk{
		chunkOf("1", "unrelated content entirely", 0.9),
		chunkOf("2", "noise", 0.1),
	}
	if Confidence("revenue growth", flat) <= Confidence("revenue growth", steep) {
		t.Fatalf("flat, covering result set should score higher confidence")
	}
}

func TestDiversityIdenticalChunksApproachesZero(t *testing.T) {
	same := make([]domain.Chunk, 8)
	for i := range same {
		same[i] = domain.Chunk{
			ChunkID:    fmt.Sprintf("c%d", i),
			DocumentID: "doc-1",
			Content:    "identical repeated content about revenue",
		}
	}
	if got := Diversity(same); got > 0.25 {
		t.Fatalf("identical chunks should approach zero diversity, got %f", got)
	}
}

func TestDiversityDisjointVocabulariesApproachesOne(t *testing.T) {
	disjoint := []domain.Chunk{
		{ChunkID: "1", DocumentID: "doc-1", Content: "alpha bravo charlie"},
		{ChunkID: "2", DocumentID: "doc-2", Content: "delta echo foxtrot"},
		{ChunkID: "3", DocumentID: "doc-3", Content: "golf hotel india"},
	}
	if got := Diversity(disjoint); got < 0.9 {
		t.Fatalf("disjoint vocabularies should approach one, got %f", got)
	}
}

func TestDiversityEmptyIsZero(t *testing.T) {
	if got := Diversity(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %f", got)
	}
}

func TestCoherenceSingleChunkIsOne(t *testing.T) {
	single := []domain.Chunk{chunkOf("1", "any content at all", 0.5)}
	if got := Coherence(single); got != 1 {
		t.Fatalf("single chunk coherence must be 1.0, got %f", got)
	}
}

func TestCoherenceConsecutiveOverlap(t *testing.T) {
	continuous := []domain.Chunk{
		chunkOf("1", "quarterly revenue increased across segments", 0),
		chunkOf("2", "revenue across segments continued growing", 0),
	}
	fragmented := []domain.Chunk{
		chunkOf("1", "quarterly revenue increased across segments", 0),
		chunkOf("2", "weather forecast tomorrow sunny skies", 0),
	}
	if Coherence(continuous) <= Coherence(fragmented) {
		t.Fatalf("overlapping consecutive chunks should be more coherent")
	}
}

func TestStageMetricsBounds(t *testing.T) {
	chunks := []domain.Chunk{
		chunkOf("1", "revenue growth in the third quarter", 0.92),
		chunkOf("2", "operating margin expanded", 0.71),
	}
	m := StageMetrics("revenue growth", chunks)
	for name, v := range map[string]float64{
		"avg_similarity": m.AvgSimilarity,
		"top_similarity": m.TopSimilarity,
		"coverage":       m.Coverage,
		"diversity":      m.Diversity,
		"coherence":      m.Coherence,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s = %f out of [0,1]", name, v)
		}
	}
	if m.TopSimilarity != 0.92 {
		t.Fatalf("expected top similarity 0.92, got %f", m.TopSimilarity)
	}
}

func TestConfidenceIgnoresInputOrder(t *testing.T) {
	sorted := []domain.Chunk{
		chunkOf("1", "lexical match on revenue growth", 1.0),
		chunkOf("2", "quarterly revenue growth numbers", 0.9),
		chunkOf("3", "revenue detail", 0.8),
		chunkOf("4", "growth analysis", 0.7),
		chunkOf("5", "context paragraph", 0.6),
		chunkOf("6", "weak match", 0.5),
	}
	// Same multiset with the strongest chunk appended last, the way merged
	// keyword results arrive after the semantic pool.
	shuffled := []domain.Chunk{
		sorted[1], sorted[2], sorted[3], sorted[4], sorted[5], sorted[0],
	}

	want := Confidence("revenue growth", sorted)
	got := Confidence("revenue growth", shuffled)
	if got != want {
		t.Fatalf("confidence depends on slice order: %f vs %f", got, want)
	}
}

func TestConfidenceUsesHighestSimilarityAsTop(t *testing.T) {
	pool := []domain.Chunk{
		chunkOf("1", "quarterly revenue growth numbers", 0.6),
		chunkOf("2", "lexical match on revenue growth", 1.0),
	}
	// With the true top at 1.0 and drop-off (1.0-0.6)/1.0, the weighted sum
	// is 0.3*1.0 + 0.3*0.8 + 0.2*0.6 + 0.2*coverage; coverage is 1.0 here.
	got := Confidence("revenue growth", pool)
	want := 0.3*1.0 + 0.3*0.8 + 0.2*0.6 + 0.2*1.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected confidence %f, got %f", want, got)
	}
}
