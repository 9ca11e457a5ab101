package extractor

import (
	"context"
	"testing"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

type stubExtractor struct {
	text  string
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ *domain.Document) (string, error) {
	s.calls++
	return s.text, nil
}

func TestRouterDispatchesByMimeType(t *testing.T) {
	fallback := &stubExtractor{text: "plain"}
	pdf := &stubExtractor{text: "pdf"}
	xlsx := &stubExtractor{text: "xlsx"}
	router := NewRouter(fallback, pdf, xlsx)

	cases := []struct {
		mime string
		want string
	}{
		{MimePDF, "pdf"},
		{MimeXLSX, "xlsx"},
		{"text/plain", "plain"},
		{"text/markdown", "plain"},
		{"", "plain"},
	}
	for _, tc := range cases {
		got, err := router.Extract(context.Background(), &domain.Document{MimeType: tc.mime})
		if err != nil {
			t.Fatalf("Extract(%q) error = %v", tc.mime, err)
		}
		if got != tc.want {
			t.Fatalf("Extract(%q) = %q, want %q", tc.mime, got, tc.want)
		}
	}
	if pdf.calls != 1 || xlsx.calls != 1 || fallback.calls != 3 {
		t.Fatalf("unexpected dispatch counts pdf=%d xlsx=%d fallback=%d", pdf.calls, xlsx.calls, fallback.calls)
	}
}
