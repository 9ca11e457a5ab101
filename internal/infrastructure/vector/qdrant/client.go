package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// Client talks to a qdrant collection holding one point per chunk, with a
// dense vector for semantic search and a sparse one for keyword search.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// chunkPayload is the stored per-point payload. Metadata survives the round
// trip so retrieval can use it as a ranking signal without refetching.
type chunkPayload struct {
	ChunkID    string                `json:"chunk_id"`
	DocumentID string                `json:"document_id"`
	ChunkIndex int                   `json:"chunk_index"`
	Content    string                `json:"content"`
	Metadata   *domain.ChunkMetadata `json:"metadata,omitempty"`
}

func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload chunkPayload   `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, ch := range chunks {
		var keyTerms []string
		if ch.Metadata != nil {
			keyTerms = ch.Metadata.KeyTerms
		}
		points = append(points, point{
			// Stable point id so re-processing a document upserts in place.
			ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(ch.ChunkID)).String(),
			Vector: map[string]any{
				"dense":   vectors[i],
				"lexical": encodeSparseDocument(ch.Content, keyTerms),
			},
			Payload: chunkPayload{
				ChunkID:    ch.ChunkID,
				DocumentID: ch.DocumentID,
				ChunkIndex: ch.ChunkIndex,
				Content:    ch.Content,
				Metadata:   ch.Metadata,
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	resp, err := c.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

// Search runs dense similarity search with a server-side score threshold.
func (c *Client) Search(ctx context.Context, embedding []float32, matchCount int, similarityThreshold float64) ([]domain.Chunk, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   "dense",
			"vector": embedding,
		},
		"limit":           matchCount,
		"score_threshold": similarityThreshold,
		"with_payload":    true,
	}
	return c.searchPoints(ctx, reqBody, false)
}

// SearchKeywords runs sparse lexical search over the same collection.
func (c *Client) SearchKeywords(ctx context.Context, keywords []string, matchLimit int) ([]domain.Chunk, error) {
	sparse := encodeSparseQuery(strings.Join(keywords, " "))
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   "lexical",
			"vector": sparse,
		},
		"limit":        matchLimit,
		"with_payload": true,
	}
	return c.searchPoints(ctx, reqBody, true)
}

func (c *Client) searchPoints(ctx context.Context, reqBody map[string]any, normalizeScores bool) ([]domain.Chunk, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	resp, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64      `json:"score"`
			Payload chunkPayload `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	// Sparse scores are unbounded; map them into [0,1] against the pool max.
	maxScore := 0.0
	for _, r := range searchResp.Result {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	out := make([]domain.Chunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		score := r.Score
		if normalizeScores && maxScore > 0 {
			score = r.Score / maxScore
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out = append(out, domain.Chunk{
			ChunkID:    r.Payload.ChunkID,
			DocumentID: r.Payload.DocumentID,
			ChunkIndex: r.Payload.ChunkIndex,
			Content:    r.Payload.Content,
			Similarity: score,
			Metadata:   r.Payload.Metadata,
		})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"dense": map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			"lexical": map[string]any{},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	resp, err := c.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}
