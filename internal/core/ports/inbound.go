package ports

import (
	"context"
	"io"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// Retriever is the inbound contract for adaptive multi-stage retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document
// processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
