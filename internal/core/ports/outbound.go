package ports

import (
	"context"
	"io"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// VectorSearch is the black-box similarity search backend. Implementations
// return candidates with a similarity score in [0,1].
type VectorSearch interface {
	Search(ctx context.Context, embedding []float32, matchCount int, similarityThreshold float64) ([]domain.Chunk, error)
}

// KeywordSearch is the black-box lexical search backend.
type KeywordSearch interface {
	SearchKeywords(ctx context.Context, keywords []string, matchLimit int) ([]domain.Chunk, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkFetcher reads stored chunks for adjacency expansion.
type ChunkFetcher interface {
	FetchChunksByIDs(ctx context.Context, ids []string) ([]domain.Chunk, error)
	FetchChunksByDocumentAndIndices(ctx context.Context, documentID string, indices []int) ([]domain.Chunk, error)
}

// ChunkIndexer writes freshly chunked documents into the search backend.
type ChunkIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ChunkRepository persists chunk rows for adjacency lookups.
type ChunkRepository interface {
	ChunkFetcher
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// DocumentChunker segments raw text into ordered chunks.
type DocumentChunker interface {
	Chunk(documentID, text string) ([]domain.Chunk, error)
}

// ResultCache is the advisory retrieval-result cache. A miss is always safe.
type ResultCache interface {
	Get(key string) (*domain.RetrievalResult, bool)
	Set(key string, result *domain.RetrievalResult)
}
