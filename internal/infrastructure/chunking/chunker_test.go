package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// proseDocument builds n paragraphs of plain prose, four sentences each,
// roughly 100 estimated tokens per paragraph.
func proseDocument(n int) string {
	paragraphs := make([]string, n)
	for i := range paragraphs {
		sentences := make([]string, 4)
		for j := range sentences {
			sentences[j] = fmt.Sprintf(
				"The quarterly operating review number %d section %d covers supply planning and vendor outcomes.",
				i, j)
		}
		paragraphs[i] = strings.Join(sentences, " ")
	}
	return strings.Join(paragraphs, "\n\n")
}

func TestChunkEmptyDocument(t *testing.T) {
	c := New(DefaultConfig(), nil)

	if _, err := c.Chunk("doc-1", "   \n\t  "); err == nil {
		t.Fatal("expected error for empty document")
	} else if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestChunkLongDocument(t *testing.T) {
	c := New(DefaultConfig(), nil)

	doc := proseDocument(20) // about 2000 estimated tokens
	chunks, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) < 3 || len(chunks) > 5 {
		t.Fatalf("expected 3 to 5 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, ch.ChunkIndex)
		}
		if want := fmt.Sprintf("doc-1:%04d", i); ch.ChunkID != want {
			t.Fatalf("chunk %d has id %q, want %q", i, ch.ChunkID, want)
		}
		if ch.DocumentID != "doc-1" {
			t.Fatalf("chunk %d has document id %q", i, ch.DocumentID)
		}
	}
}

func TestChunkDeterministic(t *testing.T) {
	c := New(DefaultConfig(), nil)

	doc := proseDocument(12)
	first, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	second, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Fatalf("chunk %d content differs between runs", i)
		}
	}
}

func TestChunkRespectsHardMax(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg, nil)

	// One giant paragraph, splittable only at sentence boundaries.
	sentences := make([]string, 120)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Statement %d describes the observed margin trend for this period.", i)
	}
	doc := strings.Join(sentences, " ")

	chunks, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the paragraph to be split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if got := estimateTokens(ch.Content); got > cfg.MaxTokens {
			t.Fatalf("chunk %d has %d estimated tokens, max is %d", i, got, cfg.MaxTokens)
		}
	}
}

func TestChunkUnsplittableSentence(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg, nil)

	// A single sentence far above the maximum cannot be split further.
	doc := strings.Repeat("datum ", 900) + "end"
	chunks, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if got := estimateTokens(chunks[0].Content); got <= cfg.MaxTokens {
		t.Fatalf("expected oversized chunk, got %d tokens", got)
	}
}

func TestChunkMergesSubMinimum(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg, nil)

	doc := proseDocument(4) + "\n\n## Notes\n\nA short closing remark."
	chunks, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	for i, ch := range chunks {
		if got := estimateTokens(ch.Content); got < cfg.MinTokens {
			t.Fatalf("chunk %d has %d estimated tokens, min is %d", i, got, cfg.MinTokens)
		}
	}
	last := chunks[len(chunks)-1]
	if !strings.Contains(last.Content, "closing remark") {
		t.Fatal("trailing section content was dropped")
	}
}

func TestChunkOverlapSharesSentences(t *testing.T) {
	c := New(DefaultConfig(), nil)

	chunks, err := c.Chunk("doc-1", proseDocument(16))
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		shared := false
		for _, sentence := range splitSentences(chunks[i].Content) {
			if strings.Contains(chunks[i+1].Content, sentence) {
				shared = true
				break
			}
		}
		if !shared {
			t.Fatalf("chunks %d and %d share no sentence", i, i+1)
		}
	}
}

func TestChunkKeepsHeadingWithSection(t *testing.T) {
	c := New(DefaultConfig(), nil)

	doc := "# Revenue Overview\n\n" + proseDocument(3)
	chunks, err := c.Chunk("doc-1", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if !strings.Contains(chunks[0].Content, "Revenue Overview") {
		t.Fatal("heading missing from first chunk")
	}
}

func TestMergeSmallKeepsChunkWhenNeighbourWouldOverflow(t *testing.T) {
	cfg := Config{TargetTokens: 100, MaxTokens: 120, MinTokens: 50, OverlapTokens: 10}
	c := New(cfg, nil)

	// 479 chars, just under MaxTokens; absorbing even a short chunk overflows.
	full := strings.TrimSpace(strings.Repeat("lorem ", 80))
	tiny := "stub"

	got := c.mergeSmall([]string{full, tiny})
	if len(got) != 2 {
		t.Fatalf("expected sub-minimum tail to survive, got %d chunks", len(got))
	}
	if got[1] != tiny {
		t.Fatalf("tail chunk was altered: %q", got[1])
	}

	// Same precedence for a sub-minimum head merging forward.
	got = c.mergeSmall([]string{tiny, full})
	if len(got) != 2 {
		t.Fatalf("expected sub-minimum head to survive, got %d chunks", len(got))
	}
	if got[0] != tiny {
		t.Fatalf("head chunk was altered: %q", got[0])
	}
}
