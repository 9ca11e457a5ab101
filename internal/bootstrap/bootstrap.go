// Package bootstrap wires the infrastructure graph shared by the api and
// worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/adaptive-retrieval/internal/config"
	"github.com/kirillkom/adaptive-retrieval/internal/core/ports"
	"github.com/kirillkom/adaptive-retrieval/internal/core/usecase"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/cache"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/chunking"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/extractor"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/extractor/xlsx"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/queue/nats"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/resilience"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/adaptive-retrieval/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue      ports.MessageQueue
	Repo       ports.DocumentRepository
	Chunker    ports.DocumentChunker
	IngestUC   ports.DocumentIngestor
	ProcessUC  ports.DocumentProcessor
	RetrieveUC ports.Retriever

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient, cfg.EmbedRPS, cfg.EmbedBurst, executor)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	chunker := chunking.New(chunking.Config{
		TargetTokens:  cfg.ChunkTargetTokens,
		MaxTokens:     cfg.ChunkMaxTokens,
		MinTokens:     cfg.ChunkMinTokens,
		OverlapTokens: cfg.ChunkOverlapTokens,
	}, logger)

	textExtractor := extractor.NewRouter(
		plaintext.NewExtractor(storage),
		pdf.NewExtractor(storage),
		xlsx.NewExtractor(storage),
	)

	resultCache := cache.NewResultCache(
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		cfg.CacheMaxEntries,
	)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, chunkRepo, textExtractor, chunker, embedder, vectorDB)
	retrieveUC := usecase.NewRetrieveUseCase(
		embedder,
		vectorDB,
		vectorDB,
		chunkRepo,
		resultCache,
		usecase.RetrievalConfig{
			MaxStages:           cfg.MaxStages,
			MinConfidence:       cfg.MinConfidence,
			DiversityWeight:     cfg.DiversityWeight,
			ExpansionFactor:     cfg.ExpansionFactor,
			AdjacencyWindow:     cfg.AdjacencyWindow,
			InitialMatchCount:   cfg.InitialMatchCount,
			SimilarityThreshold: cfg.SimilarityThreshold,
			SemanticWeight:      cfg.SemanticWeight,
			KeywordWeight:       cfg.KeywordWeight,
		},
		logger,
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:      queue,
		Repo:       repo,
		Chunker:    chunker,
		IngestUC:   ingestUC,
		ProcessUC:  processUC,
		RetrieveUC: retrieveUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
