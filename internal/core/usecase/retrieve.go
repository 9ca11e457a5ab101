package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
	"github.com/kirillkom/adaptive-retrieval/internal/core/metadata"
	"github.com/kirillkom/adaptive-retrieval/internal/core/ports"
	"github.com/kirillkom/adaptive-retrieval/internal/core/ranking"
)

// searchFanOut bounds concurrent backend calls within a single stage.
const searchFanOut = 3

// RetrievalConfig holds the resolved service-level defaults for the
// orchestrator. Request options override individual fields per call.
type RetrievalConfig struct {
	MaxStages           int
	MinConfidence       float64
	DiversityWeight     float64
	ExpansionFactor     float64
	AdjacencyWindow     int
	InitialMatchCount   int
	SimilarityThreshold float64
	SemanticWeight      float64
	KeywordWeight       float64
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxStages:           3,
		MinConfidence:       0.85,
		DiversityWeight:     0.15,
		ExpansionFactor:     1.5,
		AdjacencyWindow:     2,
		InitialMatchCount:   20,
		SimilarityThreshold: 0.45,
		SemanticWeight:      0.8,
		KeywordWeight:       0.2,
	}
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	def := DefaultRetrievalConfig()
	if c.MaxStages <= 0 {
		c.MaxStages = def.MaxStages
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = def.MinConfidence
	}
	if c.DiversityWeight <= 0 {
		c.DiversityWeight = def.DiversityWeight
	}
	if c.ExpansionFactor <= 1 {
		c.ExpansionFactor = def.ExpansionFactor
	}
	if c.AdjacencyWindow <= 0 {
		c.AdjacencyWindow = def.AdjacencyWindow
	}
	if c.InitialMatchCount <= 0 {
		c.InitialMatchCount = def.InitialMatchCount
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.SemanticWeight <= 0 {
		c.SemanticWeight = def.SemanticWeight
	}
	if c.KeywordWeight <= 0 {
		c.KeywordWeight = def.KeywordWeight
	}
	return c
}

// RetrieveUseCase is the adaptive multi-stage retrieval orchestrator. It
// classifies the query, issues backend searches stage by stage, evaluates
// confidence after each, and always terminates with a RetrievalResult.
type RetrieveUseCase struct {
	embedder ports.Embedder
	vector   ports.VectorSearch
	keyword  ports.KeywordSearch
	fetcher  ports.ChunkFetcher
	cache    ports.ResultCache
	cfg      RetrievalConfig
	logger   *slog.Logger
}

func NewRetrieveUseCase(
	embedder ports.Embedder,
	vector ports.VectorSearch,
	keyword ports.KeywordSearch,
	fetcher ports.ChunkFetcher,
	cache ports.ResultCache,
	cfg RetrievalConfig,
	logger *slog.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		embedder: embedder,
		vector:   vector,
		keyword:  keyword,
		fetcher:  fetcher,
		cache:    cache,
		cfg:      cfg.normalize(),
		logger:   logger,
	}
}

// run carries the mutable state of one retrieval across stages.
type run struct {
	query     string
	qc        domain.QueryContext
	cfg       RetrievalConfig
	threshold float64
	limit     int
	chunks    []domain.Chunk
	seen      map[string]struct{}
	stages    []domain.RetrievalStage
	trail     []string
}

func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error) {
	if len(ranking.Tokenize(query)) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("query has no searchable terms"))
	}

	cfg := uc.resolve(opts)
	cacheKey := retrievalCacheKey(query, cfg, opts)
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	qc := ClassifyQuery(query)
	r := &run{
		query:     query,
		qc:        qc,
		cfg:       cfg,
		threshold: cfg.SimilarityThreshold + (qc.SuggestedThreshold - baseThreshold),
		limit:     qc.SuggestedLimit,
		seen:      map[string]struct{}{},
	}
	if opts.InitialMatchCount > 0 {
		r.limit = opts.InitialMatchCount
	}
	if opts.SimilarityThreshold > 0 {
		r.threshold = opts.SimilarityThreshold
	}

	uc.stage1(ctx, r)
	if len(r.chunks) == 0 {
		uc.fallback(ctx, r)
		if len(r.chunks) == 0 {
			result := uc.finalize(ctx, r, opts, "fallback-empty")
			if uc.cache != nil {
				uc.cache.Set(cacheKey, result)
			}
			return result, nil
		}
	}

	if !uc.confident(r) && len(r.stages) < cfg.MaxStages {
		uc.stage2(ctx, r)
	}
	if !uc.confident(r) && len(r.stages) < cfg.MaxStages {
		uc.stage3(r)
	}

	result := uc.finalize(ctx, r, opts, "")
	if uc.cache != nil {
		uc.cache.Set(cacheKey, result)
	}
	return result, nil
}

func (uc *RetrieveUseCase) resolve(opts domain.RetrievalOptions) RetrievalConfig {
	cfg := uc.cfg
	if opts.MaxStages > 0 {
		cfg.MaxStages = opts.MaxStages
	}
	if opts.MinConfidence > 0 {
		cfg.MinConfidence = opts.MinConfidence
	}
	if opts.DiversityWeight > 0 {
		cfg.DiversityWeight = opts.DiversityWeight
	}
	if opts.ExpansionFactor > 1 {
		cfg.ExpansionFactor = opts.ExpansionFactor
	}
	if opts.AdjacencyWindow > 0 {
		cfg.AdjacencyWindow = opts.AdjacencyWindow
	}
	return cfg
}

func (uc *RetrieveUseCase) confident(r *run) bool {
	if len(r.stages) == 0 {
		return false
	}
	last := r.stages[len(r.stages)-1]
	return last.Confidence >= r.cfg.MinConfidence && len(r.chunks) > 0
}

// stage1 issues the initial search: semantic alone, or semantic plus keyword
// concurrently for hybrid and multi-stage plans.
func (uc *RetrieveUseCase) stage1(ctx context.Context, r *run) {
	mode := domain.ModeSemantic
	both := r.qc.SearchStrategy == domain.StrategyHybrid || r.qc.SearchStrategy == domain.StrategyMultiStage
	if both {
		mode = domain.ModeHybrid
	}

	var semantic, lexical []domain.Chunk
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchFanOut)
	g.Go(func() error {
		semantic = uc.searchSemantic(gctx, r.query, r.limit, r.threshold)
		return nil
	})
	if both {
		g.Go(func() error {
			lexical = uc.searchKeyword(gctx, ranking.Tokenize(r.query), r.limit)
			return nil
		})
	}
	_ = g.Wait()

	if r.qc.SearchStrategy == domain.StrategyTemporalBoost {
		boostTemporal(semantic)
	}
	r.merge(semantic)
	r.merge(lexical)
	r.record(mode)
}

// fallback retries once at a lowered threshold when stage1 came back empty.
func (uc *RetrieveUseCase) fallback(ctx context.Context, r *run) {
	r.merge(uc.searchSemantic(ctx, r.query, r.limit, r.threshold-0.05))
	r.record(domain.ModeFallback)
}

// stage2 picks a follow-up search from stage1's metrics: low diversity means
// query expansion, low coherence means keyword search, otherwise hybrid.
func (uc *RetrieveUseCase) stage2(ctx context.Context, r *run) {
	metrics := r.stages[len(r.stages)-1].Metrics
	switch {
	case metrics.Diversity < 0.3:
		expanded := expandQuery(r.query, r.chunks)
		widened := int(float64(r.limit) * r.cfg.ExpansionFactor)
		r.merge(uc.searchSemantic(ctx, expanded, widened, r.threshold))
		r.record(domain.ModeExpansion)
	case metrics.Coherence < 0.2:
		r.merge(uc.searchKeyword(ctx, ranking.Tokenize(r.query), r.limit))
		r.record(domain.ModeKeyword)
	default:
		var semantic, lexical []domain.Chunk
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(searchFanOut)
		g.Go(func() error {
			semantic = uc.searchSemantic(gctx, r.query, r.limit, r.threshold)
			return nil
		})
		g.Go(func() error {
			lexical = uc.searchKeyword(gctx, ranking.Tokenize(r.query), r.limit)
			return nil
		})
		_ = g.Wait()
		r.merge(semantic)
		r.merge(lexical)
		r.record(domain.ModeHybrid)
	}
}

// stage3 reranks the merged set with the hybrid scorer. The final MMR pass
// happens in finalize.
func (uc *RetrieveUseCase) stage3(r *run) {
	topK := len(r.chunks)
	if topK > 20 {
		topK = 20
	}
	weights := ranking.RerankWeights{
		SemanticWeight: r.cfg.SemanticWeight,
		KeywordWeight:  r.cfg.KeywordWeight,
	}
	r.chunks = ranking.Rerank(r.query, r.chunks, domain.RerankHybrid, topK, weights)
	r.record(domain.ModeHybrid)
	r.trail[len(r.trail)-1] = "hybrid-mmr"
}

// finalize always applies MMR diversity selection, optionally expands the
// selection with adjacent chunks, and assembles the result.
func (uc *RetrieveUseCase) finalize(ctx context.Context, r *run, opts domain.RetrievalOptions, label string) *domain.RetrievalResult {
	final := r.chunks
	if len(final) > 0 {
		k := len(final)
		if k > 10 {
			k = 10
		}
		lambda := ranking.AdaptiveLambda(r.query, 1-r.cfg.DiversityWeight)
		final = ranking.SelectMMR(final, k, lambda)
	}
	if opts.EnableAdjacentChunks && len(final) > 0 && uc.fetcher != nil {
		final = uc.expandAdjacent(ctx, final, r.cfg.AdjacencyWindow)
	}

	trail := r.trail
	if label != "" {
		trail = append(trail, label)
	}

	confidence := 0.0
	if len(final) > 0 {
		confidence = ranking.Confidence(r.query, final)
	}

	return &domain.RetrievalResult{
		Chunks:          final,
		Stages:          r.stages,
		TotalConfidence: confidence,
		Strategy:        strings.Join(trail, "→"),
		Reasoning:       fmt.Sprintf("%s; stages=%d; final=%d", r.qc.Reasoning, len(r.stages), len(final)),
	}
}

// expandAdjacent fetches neighbouring chunk indices per document with bounded
// parallelism and appends the new chunks in document order.
func (uc *RetrieveUseCase) expandAdjacent(ctx context.Context, final []domain.Chunk, window int) []domain.Chunk {
	wanted := map[string]map[int]struct{}{}
	present := map[string]struct{}{}
	for _, ch := range final {
		present[ch.ChunkID] = struct{}{}
		if wanted[ch.DocumentID] == nil {
			wanted[ch.DocumentID] = map[int]struct{}{}
		}
		for d := 1; d <= window; d++ {
			if idx := ch.ChunkIndex - d; idx >= 0 {
				wanted[ch.DocumentID][idx] = struct{}{}
			}
			wanted[ch.DocumentID][ch.ChunkIndex+d] = struct{}{}
		}
	}
	for _, ch := range final {
		delete(wanted[ch.DocumentID], ch.ChunkIndex)
	}

	docIDs := make([]string, 0, len(wanted))
	for docID := range wanted {
		docIDs = append(docIDs, docID)
	}
	sort.Strings(docIDs)

	fetched := make([][]domain.Chunk, len(docIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchFanOut)
	for i, docID := range docIDs {
		indices := make([]int, 0, len(wanted[docID]))
		for idx := range wanted[docID] {
			indices = append(indices, idx)
		}
		if len(indices) == 0 {
			continue
		}
		sort.Ints(indices)
		g.Go(func() error {
			chunks, err := uc.fetcher.FetchChunksByDocumentAndIndices(gctx, docID, indices)
			if err != nil {
				uc.logger.Warn("adjacency fetch failed", "document_id", docID, "error", err)
				return nil
			}
			fetched[i] = chunks
			return nil
		})
	}
	_ = g.Wait()

	var extra []domain.Chunk
	for _, chunks := range fetched {
		for _, ch := range chunks {
			if _, ok := present[ch.ChunkID]; ok {
				continue
			}
			present[ch.ChunkID] = struct{}{}
			extra = append(extra, ch)
		}
	}
	sort.SliceStable(extra, func(i, j int) bool {
		if extra[i].DocumentID != extra[j].DocumentID {
			return extra[i].DocumentID < extra[j].DocumentID
		}
		return extra[i].ChunkIndex < extra[j].ChunkIndex
	})
	return append(final, extra...)
}

// searchSemantic embeds the query and calls the vector backend. Any failure
// is logged and treated as an empty result.
func (uc *RetrieveUseCase) searchSemantic(ctx context.Context, query string, limit int, threshold float64) []domain.Chunk {
	embedding, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		uc.logger.Warn("embed query failed", "error", err)
		return nil
	}
	chunks, err := uc.vector.Search(ctx, embedding, limit, threshold)
	if err != nil {
		uc.logger.Warn("vector search failed", "error", err)
		return nil
	}
	return chunks
}

func (uc *RetrieveUseCase) searchKeyword(ctx context.Context, keywords []string, limit int) []domain.Chunk {
	if uc.keyword == nil {
		return nil
	}
	chunks, err := uc.keyword.SearchKeywords(ctx, keywords, limit)
	if err != nil {
		uc.logger.Warn("keyword search failed", "error", err)
		return nil
	}
	return chunks
}

// merge adds chunks to the running set by chunk_id, first seen wins.
func (r *run) merge(chunks []domain.Chunk) {
	for _, ch := range chunks {
		if _, ok := r.seen[ch.ChunkID]; ok {
			continue
		}
		r.seen[ch.ChunkID] = struct{}{}
		r.chunks = append(r.chunks, ch)
	}
}

// record appends an immutable stage log entry over the current merged set.
func (r *run) record(mode domain.RetrievalMode) {
	metrics := ranking.StageMetrics(r.query, r.chunks)
	r.stages = append(r.stages, domain.RetrievalStage{
		Index:      len(r.stages) + 1,
		Mode:       mode,
		ChunkCount: len(r.chunks),
		Confidence: ranking.Confidence(r.query, r.chunks),
		Metrics:    metrics,
	})
	r.trail = append(r.trail, string(mode))
}

// boostTemporal nudges up the similarity of chunks carrying temporal
// entities, extracting them on the fly when metadata is absent.
func boostTemporal(chunks []domain.Chunk) {
	for i := range chunks {
		temporal := false
		if chunks[i].Metadata != nil {
			temporal = len(chunks[i].Metadata.TemporalEntities) > 0
		} else {
			temporal = len(metadata.ExtractTemporalEntities(chunks[i].Content)) > 0
		}
		if temporal {
			chunks[i].Similarity += 0.05
			if chunks[i].Similarity > 1 {
				chunks[i].Similarity = 1
			}
		}
	}
}

// expandQuery appends the most frequent terms of the top-3 chunks that do
// not already occur in the query.
func expandQuery(query string, chunks []domain.Chunk) string {
	inQuery := map[string]struct{}{}
	for _, t := range ranking.Tokenize(query) {
		inQuery[t] = struct{}{}
	}

	counts := map[string]int{}
	top := chunks
	if len(top) > 3 {
		top = top[:3]
	}
	for _, ch := range top {
		for _, t := range ranking.Tokenize(ch.Content) {
			if _, ok := inQuery[t]; ok {
				continue
			}
			counts[t]++
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > 3 {
		terms = terms[:3]
	}
	if len(terms) == 0 {
		return query
	}
	return query + " " + strings.Join(terms, " ")
}

// retrievalCacheKey must cover everything that changes the computed result:
// the normalized query, the resolved config, and the request options that
// apply outside resolve (threshold/limit overrides, adjacency expansion).
func retrievalCacheKey(query string, cfg RetrievalConfig, opts domain.RetrievalOptions) string {
	return fmt.Sprintf("%s|%+v|%g|%d|%t",
		strings.Join(ranking.Tokenize(query), " "),
		cfg,
		opts.SimilarityThreshold,
		opts.InitialMatchCount,
		opts.EnableAdjacentChunks,
	)
}
