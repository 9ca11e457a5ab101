// Package chunking implements the structure-aware semantic chunker. It
// segments a document along its heading hierarchy and paragraph boundaries,
// sizes chunks by a density-adjusted token budget, and injects sentence
// overlap between neighbours. Deterministic given the same input and config.
package chunking

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

type Chunker struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Chunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{cfg: cfg.normalize(), logger: logger}
}

// Chunk segments the document into ordered chunks. The only chunk allowed to
// exceed the hard maximum is a single sentence that cannot be split further.
func (c *Chunker) Chunk(documentID, text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("empty document"))
	}

	var cores []string
	for _, sec := range parseSections(text) {
		cores = append(cores, c.chunkSection(sec)...)
	}
	if len(cores) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("no chunkable content"))
	}

	contents := c.injectOverlap(cores)
	contents = c.mergeSmall(contents)

	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			ChunkID:    fmt.Sprintf("%s:%04d", documentID, i),
			DocumentID: documentID,
			Content:    content,
			ChunkIndex: i,
		}
	}
	return chunks, nil
}

// chunkSection accumulates a section's paragraphs up to a density-adjusted
// token target.
func (c *Chunker) chunkSection(sec section) []string {
	body := sec.body
	if sec.heading != "" {
		if body == "" {
			body = sec.heading
		} else {
			body = sec.heading + "\n\n" + body
		}
	}

	density := densityScore(body)
	target := int(float64(c.cfg.TargetTokens) * (1 - density*0.3))
	if target < c.cfg.MinTokens {
		target = c.cfg.MinTokens
	}

	var out []string
	var acc []string
	accTokens := 0

	flush := func() {
		if len(acc) == 0 {
			return
		}
		out = append(out, strings.Join(acc, "\n\n"))
		acc = acc[:0]
		accTokens = 0
	}

	for _, paragraph := range splitParagraphs(body) {
		tokens := estimateTokens(paragraph)
		if tokens > c.cfg.MaxTokens {
			flush()
			out = append(out, c.splitOversized(paragraph, target)...)
			continue
		}
		if accTokens > 0 && accTokens+tokens > target {
			flush()
		}
		acc = append(acc, paragraph)
		accTokens += tokens
	}
	flush()
	return out
}

// splitOversized breaks a paragraph that alone exceeds the hard maximum at
// sentence boundaries under the same budget. A single sentence above the
// maximum is unsplittable: logged and emitted as-is.
func (c *Chunker) splitOversized(paragraph string, target int) []string {
	var out []string
	var acc []string
	accTokens := 0

	flush := func() {
		if len(acc) == 0 {
			return
		}
		out = append(out, strings.Join(acc, " "))
		acc = acc[:0]
		accTokens = 0
	}

	for _, sentence := range splitSentences(paragraph) {
		tokens := estimateTokens(sentence)
		if tokens > c.cfg.MaxTokens {
			flush()
			c.logger.Warn("unsplittable_sentence",
				"estimated_tokens", tokens,
				"max_tokens", c.cfg.MaxTokens,
			)
			out = append(out, sentence)
			continue
		}
		if accTokens > 0 && accTokens+tokens > target {
			flush()
		}
		acc = append(acc, sentence)
		accTokens += tokens
	}
	flush()
	return out
}

// injectOverlap prepends trailing sentences of the previous chunk and appends
// leading sentences of the next one, bounded by the overlap budget and the
// hard maximum.
func (c *Chunker) injectOverlap(cores []string) []string {
	if c.cfg.OverlapTokens == 0 || len(cores) < 2 {
		out := make([]string, len(cores))
		copy(out, cores)
		return out
	}

	out := make([]string, len(cores))
	for i, core := range cores {
		budget := c.cfg.MaxTokens - estimateTokens(core)
		var prefix, suffix []string

		if i > 0 {
			prefix = trailingSentences(cores[i-1], minInt(c.cfg.OverlapTokens, budget))
			for _, s := range prefix {
				budget -= estimateTokens(s)
			}
		}
		if i < len(cores)-1 && budget > 0 {
			suffix = leadingSentences(cores[i+1], minInt(c.cfg.OverlapTokens, budget))
		}

		parts := make([]string, 0, len(prefix)+1+len(suffix))
		parts = append(parts, prefix...)
		parts = append(parts, core)
		parts = append(parts, suffix...)
		out[i] = strings.Join(parts, " ")
	}
	return out
}

// mergeSmall folds chunks below the hard minimum into a neighbour. The hard
// maximum takes precedence over the minimum: when merging into either
// neighbour would push that neighbour past MaxTokens, the sub-minimum chunk
// is kept as is.
func (c *Chunker) mergeSmall(contents []string) []string {
	if len(contents) < 2 {
		return contents
	}

	out := make([]string, 0, len(contents))
	for _, content := range contents {
		if len(out) > 0 && estimateTokens(content) < c.cfg.MinTokens {
			merged := out[len(out)-1] + "\n\n" + content
			if estimateTokens(merged) <= c.cfg.MaxTokens {
				out[len(out)-1] = merged
				continue
			}
		}
		out = append(out, content)
	}

	// A sub-minimum head merges forward instead.
	if len(out) > 1 && estimateTokens(out[0]) < c.cfg.MinTokens {
		merged := out[0] + "\n\n" + out[1]
		if estimateTokens(merged) <= c.cfg.MaxTokens {
			out = append([]string{merged}, out[2:]...)
		}
	}
	return out
}

func splitParagraphs(body string) []string {
	var out []string
	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph != "" {
			out = append(out, paragraph)
		}
	}
	return out
}

// trailingSentences returns the last sentences of text fitting the budget,
// in original order.
func trailingSentences(text string, budget int) []string {
	if budget <= 0 {
		return nil
	}
	sentences := splitSentences(text)
	var out []string
	total := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		tokens := estimateTokens(sentences[i])
		if total+tokens > budget {
			break
		}
		out = append([]string{sentences[i]}, out...)
		total += tokens
	}
	return out
}

func leadingSentences(text string, budget int) []string {
	if budget <= 0 {
		return nil
	}
	var out []string
	total := 0
	for _, sentence := range splitSentences(text) {
		tokens := estimateTokens(sentence)
		if total+tokens > budget {
			break
		}
		out = append(out, sentence)
		total += tokens
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
