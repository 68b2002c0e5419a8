package extractor

import (
	"context"
	"testing"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

type staticExtractor struct {
	text string
}

func (s *staticExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return s.text, nil
}

func TestCompositeRoutesByExtension(t *testing.T) {
	composite := NewComposite(&staticExtractor{text: "fallback"})
	composite.Register("pdf", &staticExtractor{text: "pdf"})
	composite.Register(".XLSX", &staticExtractor{text: "xlsx"})

	cases := []struct {
		filename string
		want     string
	}{
		{"contract.pdf", "pdf"},
		{"contract.PDF", "pdf"},
		{"bids.xlsx", "xlsx"},
		{"notes.txt", "fallback"},
		{"no-extension", "fallback"},
	}
	for _, tc := range cases {
		got, err := composite.Extract(context.Background(), &domain.Document{Filename: tc.filename})
		if err != nil {
			t.Fatalf("Extract(%s) error = %v", tc.filename, err)
		}
		if got != tc.want {
			t.Fatalf("Extract(%s) routed to %q, want %q", tc.filename, got, tc.want)
		}
	}
}
