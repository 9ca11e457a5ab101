package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

func indexableChunks() []domain.Chunk {
	return []domain.Chunk{
		{ChunkID: "doc-1:0000", DocumentID: "doc-1", Content: "Revenue grew 12%.", ChunkIndex: 0},
		{ChunkID: "doc-1:0001", DocumentID: "doc-1", Content: "Costs held steady.", ChunkIndex: 1},
	}
}

func TestIndexChunksEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	doc := &domain.Document{ID: "doc-1", Filename: "a.txt"}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), doc, indexableChunks(), vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), doc, indexableChunks(), vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestIndexChunksStablePointIDs(t *testing.T) {
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points" {
			raw, _ := io.ReadAll(r.Body)
			bodies = append(bodies, raw)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	doc := &domain.Document{ID: "doc-1"}
	vectors := [][]float32{{0.1}, {0.2}}

	for i := 0; i < 2; i++ {
		if err := client.IndexChunks(context.Background(), doc, indexableChunks(), vectors); err != nil {
			t.Fatalf("IndexChunks() error = %v", err)
		}
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(bodies))
	}

	type upsert struct {
		Points []struct {
			ID string `json:"id"`
		} `json:"points"`
	}
	var first, second upsert
	if err := json.Unmarshal(bodies[0], &first); err != nil {
		t.Fatalf("decode first upsert: %v", err)
	}
	if err := json.Unmarshal(bodies[1], &second); err != nil {
		t.Fatalf("decode second upsert: %v", err)
	}
	if len(first.Points) == 0 || first.Points[0].ID != second.Points[0].ID {
		t.Fatalf("expected stable point ids, got %+v then %+v", first.Points, second.Points)
	}
}

func TestSearchDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"chunk_id":"doc-1:0000","document_id":"doc-1","chunk_index":0,"content":"Revenue grew 12%.","metadata":{"chunk_semantic_type":"financial_data"}}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	chunks, err := client.Search(context.Background(), []float32{0.1, 0.2}, 10, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	ch := chunks[0]
	if ch.ChunkID != "doc-1:0000" || ch.DocumentID != "doc-1" {
		t.Fatalf("unexpected identity %s/%s", ch.ChunkID, ch.DocumentID)
	}
	if ch.Similarity != 0.91 {
		t.Fatalf("expected similarity 0.91, got %f", ch.Similarity)
	}
	if ch.Metadata == nil || ch.Metadata.SemanticType != domain.SemanticFinancialData {
		t.Fatalf("expected metadata round trip, got %+v", ch.Metadata)
	}
}

func TestSearchKeywordsNormalizesScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[
			{"score":8.0,"payload":{"chunk_id":"c1","document_id":"doc-1","content":"a"}},
			{"score":4.0,"payload":{"chunk_id":"c2","document_id":"doc-1","content":"b"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	chunks, err := client.SearchKeywords(context.Background(), []string{"revenue", "growth"}, 10)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Similarity != 1.0 || chunks[1].Similarity != 0.5 {
		t.Fatalf("expected normalized scores 1.0/0.5, got %f/%f", chunks[0].Similarity, chunks[1].Similarity)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	doc := &domain.Document{ID: "doc-1"}
	err := client.IndexChunks(context.Background(), doc, indexableChunks()[:1], [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
