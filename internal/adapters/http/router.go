// Package httpadapter exposes the retrieval engine over REST.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/adaptive-retrieval/internal/core/ports"
	"github.com/kirillkom/adaptive-retrieval/internal/observability/metrics"
)

// Config carries the adapter-level knobs. Zero values disable the
// corresponding middleware.
type Config struct {
	ServiceName      string
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration

	SemanticWeight float64
	KeywordWeight  float64
}

type Router struct {
	cfg       Config
	retriever ports.Retriever
	ingestor  ports.DocumentIngestor
	reader    ports.DocumentReader
	chunker   ports.DocumentChunker
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	cfg Config,
	retriever ports.Retriever,
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	chunker ports.DocumentChunker,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:       cfg,
		retriever: retriever,
		ingestor:  ingestor,
		reader:    reader,
		chunker:   chunker,
		metrics:   m,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/retrieval/query", rt.retrieveQuery)
	mux.HandleFunc("/v1/retrieval/rerank", rt.rerankChunks)
	mux.HandleFunc("/v1/chunking/split", rt.splitText)
	mux.HandleFunc("/v1/metadata/extract", rt.extractMetadata)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.MaxConcurrent > 0 {
		wait := rt.cfg.BackpressureWait
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, wait)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
