// Package extractor routes stored documents to a format-specific text
// extractor based on their MIME type.
package extractor

import (
	"context"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
	"github.com/kirillkom/adaptive-retrieval/internal/core/ports"
)

const (
	MimePDF  = "application/pdf"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	byMime   map[string]ports.TextExtractor
	fallback ports.TextExtractor
}

// NewRouter wires the format extractors. Unknown MIME types go to the
// plaintext fallback, which rejects non-UTF-8 payloads itself.
func NewRouter(fallback, pdf, xlsx ports.TextExtractor) *Router {
	return &Router{
		byMime: map[string]ports.TextExtractor{
			MimePDF:  pdf,
			MimeXLSX: xlsx,
		},
		fallback: fallback,
	}
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if ex, ok := r.byMime[doc.MimeType]; ok && ex != nil {
		return ex.Extract(ctx, doc)
	}
	return r.fallback.Extract(ctx, doc)
}
