package pdftext

import (
	"strings"
	"testing"

	"github.com/kirillkom/governed-rag/internal/infrastructure/chunking"
)

func TestJoinPagesSeparatesWithFormFeed(t *testing.T) {
	got := joinPages([]string{"first page", "second page\n", ""})
	if strings.Count(got, "\f") != 2 {
		t.Fatalf("want one form feed per page break, got %q", got)
	}
	if !strings.HasPrefix(got, "first page\n") {
		t.Fatalf("page text mangled: %q", got)
	}
}

func TestJoinPagesSinglePageHasNoFormFeed(t *testing.T) {
	if got := joinPages([]string{"only page"}); strings.Contains(got, "\f") {
		t.Fatalf("single page must not contain a page break: %q", got)
	}
}

func TestExtractedPagesCarryPageNumbersThroughChunking(t *testing.T) {
	text := joinPages([]string{
		"ARTICLE 1 Scope\nThis agreement covers supply of goods.",
		"ARTICLE 2 Payment\nInvoices are due in 30 days.",
		"Continuation of payment terms without a header.",
	})

	passages := chunking.NewSplitter(900, 150).Split(text)
	if len(passages) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(passages), passages)
	}
	if passages[0].PageNumber != 1 {
		t.Fatalf("first section page: want 1, got %d", passages[0].PageNumber)
	}
	if passages[1].PageNumber != 2 {
		t.Fatalf("second section page: want 2, got %d", passages[1].PageNumber)
	}
	if passages[1].SectionTitle != "ARTICLE 2 Payment" {
		t.Fatalf("second section title: got %q", passages[1].SectionTitle)
	}
}
