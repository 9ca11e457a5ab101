package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
	"github.com/kirillkom/adaptive-retrieval/internal/core/ranking"
)

type retrieveRequest struct {
	Query   string                  `json:"query"`
	Options domain.RetrievalOptions `json:"options"`
}

func (rt *Router) retrieveQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	result, err := rt.retriever.Retrieve(r.Context(), req.Query, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(
			rt.cfg.ServiceName,
			result.Strategy,
			len(result.Stages),
			len(result.Chunks),
			result.TotalConfidence,
			time.Since(start),
		)
	}
	writeJSON(w, http.StatusOK, result)
}

type rerankRequest struct {
	Query    string         `json:"query"`
	Chunks   []domain.Chunk `json:"chunks"`
	Strategy string         `json:"strategy"`
	TopK     int            `json:"top_k"`
}

var rerankStrategies = map[domain.RerankStrategy]bool{
	domain.RerankBM25:         true,
	domain.RerankKeywordBoost: true,
	domain.RerankSemantic:     true,
	domain.RerankHybrid:       true,
}

func (rt *Router) rerankChunks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req rerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	strategy := domain.RerankStrategy(req.Strategy)
	if req.Strategy == "" {
		strategy = domain.RerankHybrid
	}
	if !rerankStrategies[strategy] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown rerank strategy"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = len(req.Chunks)
	}

	reranked := ranking.Rerank(req.Query, req.Chunks, strategy, topK, ranking.RerankWeights{
		SemanticWeight: rt.cfg.SemanticWeight,
		KeywordWeight:  rt.cfg.KeywordWeight,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks":   reranked,
		"strategy": strategy,
	})
}
