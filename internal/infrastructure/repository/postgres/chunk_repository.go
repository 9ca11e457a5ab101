package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// ChunkRepository persists chunk rows so retrieval can expand a result set
// with neighbouring chunks without round-tripping the vector backend.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// SaveChunks replaces a document's chunks atomically. Re-processing a
// document must not leave stale rows behind.
func (r *ChunkRepository) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	for _, ch := range chunks {
		metaJSON, err := marshalMetadata(ch.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO chunks (chunk_id, document_id, chunk_index, content, metadata)
VALUES ($1,$2,$3,$4,$5)
`, ch.ChunkID, documentID, ch.ChunkIndex, ch.Content, metaJSON); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ch.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) FetchChunksByIDs(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT chunk_id, document_id, chunk_index, content, metadata
FROM chunks
WHERE chunk_id = ANY($1)
ORDER BY document_id, chunk_index
`, ids)
	if err != nil {
		return nil, fmt.Errorf("query chunks by ids: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *ChunkRepository) FetchChunksByDocumentAndIndices(ctx context.Context, documentID string, indices []int) ([]domain.Chunk, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT chunk_id, document_id, chunk_index, content, metadata
FROM chunks
WHERE document_id = $1 AND chunk_index = ANY($2)
ORDER BY chunk_index
`, documentID, indices)
	if err != nil {
		return nil, fmt.Errorf("query chunks by indices: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for rows.Next() {
		var ch domain.Chunk
		var metaRaw []byte
		if err := rows.Scan(&ch.ChunkID, &ch.DocumentID, &ch.ChunkIndex, &ch.Content, &metaRaw); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if len(metaRaw) > 0 && string(metaRaw) != "{}" {
			var meta domain.ChunkMetadata
			if err := json.Unmarshal(metaRaw, &meta); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
			ch.Metadata = &meta
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func marshalMetadata(meta *domain.ChunkMetadata) ([]byte, error) {
	if meta == nil {
		return []byte(`{}`), nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal chunk metadata: %w", err)
	}
	return raw, nil
}
