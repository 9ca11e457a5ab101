package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
	"github.com/kirillkom/adaptive-retrieval/internal/core/metadata"
	"github.com/kirillkom/adaptive-retrieval/internal/core/ports"
)

// ProcessDocumentUseCase runs the ingestion pipeline for one uploaded
// document: extract text, chunk it, tag every chunk with extracted metadata,
// embed, persist and index.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	chunkRepo ports.ChunkRepository
	extractor ports.TextExtractor
	chunker   ports.DocumentChunker
	embedder  ports.Embedder
	indexer   ports.ChunkIndexer
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	extractor ports.TextExtractor,
	chunker ports.DocumentChunker,
	embedder ports.Embedder,
	indexer ports.ChunkIndexer,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		chunkRepo: chunkRepo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		indexer:   indexer,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, doc.ID, chunkCount); err != nil {
		return fmt.Errorf("save chunk count: %w", err)
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (*domain.Document, int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return nil, 0, err
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return nil, 0, err
	}

	chunks, err := uc.chunk(doc.ID, text)
	if err != nil {
		return nil, 0, err
	}
	annotateChunks(chunks)

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, 0, err
	}

	if err := uc.chunkRepo.SaveChunks(ctx, doc.ID, chunks); err != nil {
		return nil, 0, fmt.Errorf("save chunks: %w", err)
	}

	if err := uc.indexer.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return nil, 0, fmt.Errorf("index chunks: %w", err)
	}

	return doc, len(chunks), nil
}

// annotateChunks attaches extracted temporal/financial metadata to each
// chunk so it is available as a ranking signal at query time.
func annotateChunks(chunks []domain.Chunk) {
	for i := range chunks {
		meta := metadata.Extract(chunks[i].Content)
		chunks[i].Metadata = &meta
	}
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) chunk(documentID, text string) ([]domain.Chunk, error) {
	chunks, err := uc.chunker.Chunk(documentID, text)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
