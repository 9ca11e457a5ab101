package domain

// RetrievalMode tags which backend call produced a stage's candidates.
type RetrievalMode string

const (
	ModeSemantic  RetrievalMode = "semantic"
	ModeKeyword   RetrievalMode = "keyword"
	ModeHybrid    RetrievalMode = "hybrid"
	ModeExpansion RetrievalMode = "expansion"
	ModeFallback  RetrievalMode = "fallback"
)

// StageMetrics are the quality heuristics computed over a stage's chunk set.
// All values are clamped to [0,1].
type StageMetrics struct {
	AvgSimilarity float64 `json:"avg_similarity"`
	TopSimilarity float64 `json:"top_similarity"`
	Coverage      float64 `json:"coverage"`
	Diversity     float64 `json:"diversity"`
	Coherence     float64 `json:"coherence"`
}

// RetrievalStage is an append-only log entry for one executed stage. Never
// mutated after creation.
type RetrievalStage struct {
	Index      int           `json:"stage_index"`
	Mode       RetrievalMode `json:"strategy"`
	ChunkCount int           `json:"chunk_count"`
	Confidence float64       `json:"confidence"`
	Metrics    StageMetrics  `json:"metrics"`
}

// RetrievalResult is the terminal artifact of a retrieval run. Stateless
// beyond this value; Reasoning explains the strategy path for observability.
type RetrievalResult struct {
	Chunks          []Chunk          `json:"chunks"`
	Stages          []RetrievalStage `json:"stages"`
	TotalConfidence float64          `json:"total_confidence"`
	Strategy        string           `json:"strategy"`
	Reasoning       string           `json:"reasoning"`
}

// RetrievalOptions are the per-request knobs recognized by Retrieve. Zero
// values fall back to the resolved service defaults.
type RetrievalOptions struct {
	MaxStages            int     `json:"max_stages,omitempty"`
	MinConfidence        float64 `json:"min_confidence,omitempty"`
	DiversityWeight      float64 `json:"diversity_weight,omitempty"`
	ExpansionFactor      float64 `json:"expansion_factor,omitempty"`
	EnableAdjacentChunks bool    `json:"enable_adjacent_chunks,omitempty"`
	AdjacencyWindow      int     `json:"adjacency_window,omitempty"`
	InitialMatchCount    int     `json:"initial_match_count,omitempty"`
	SimilarityThreshold  float64 `json:"similarity_threshold,omitempty"`
}

// RerankStrategy selects one of the interchangeable reranking scorers.
type RerankStrategy string

const (
	RerankBM25         RerankStrategy = "bm25"
	RerankKeywordBoost RerankStrategy = "keyword_boost"
	RerankSemantic     RerankStrategy = "semantic"
	RerankHybrid       RerankStrategy = "hybrid"
)
