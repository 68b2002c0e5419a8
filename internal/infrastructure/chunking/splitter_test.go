package chunking

import (
	"strings"
	"testing"
)

func TestSplitCutsAtStructuralHeaders(t *testing.T) {
	text := "preamble text before any heading\n" +
		"ARTICLE 4 Termination\n" +
		"either party may terminate with notice\n" +
		"SECTION 4.2 Notice Period\n" +
		"thirty days written notice is required\n"

	s := NewSplitter(900, 150)
	passages := s.Split(text)

	if len(passages) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(passages))
	}
	if passages[0].SectionTitle != "" {
		t.Fatalf("preamble must carry no section title, got %q", passages[0].SectionTitle)
	}
	if passages[1].SectionTitle != "ARTICLE 4 Termination" {
		t.Fatalf("passage 1 title: got %q", passages[1].SectionTitle)
	}
	if passages[2].SectionTitle != "SECTION 4.2 Notice Period" {
		t.Fatalf("passage 2 title: got %q", passages[2].SectionTitle)
	}
	if !strings.Contains(passages[2].Text, "thirty days") {
		t.Fatalf("section body missing: %q", passages[2].Text)
	}
}

func TestSplitRecognizesNumericAndMarkdownHeaders(t *testing.T) {
	text := "3.4.1 Scope of Work\nbody one\n" +
		"# Delivery Terms\nbody two\n" +
		"A-12 Appendix Rates\nbody three\n"

	passages := NewSplitter(900, 150).Split(text)
	if len(passages) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(passages))
	}
	if passages[0].SectionTitle != "3.4.1 Scope of Work" {
		t.Fatalf("numeric header: got %q", passages[0].SectionTitle)
	}
	if passages[1].SectionTitle != "Delivery Terms" {
		t.Fatalf("markdown header must be stripped of #: got %q", passages[1].SectionTitle)
	}
	if passages[2].SectionTitle != "A-12 Appendix Rates" {
		t.Fatalf("letter-number header: got %q", passages[2].SectionTitle)
	}
}

func TestSplitWindowsOversizedSections(t *testing.T) {
	body := strings.Repeat("term ", 600)
	text := "SECTION 1 Long\n" + body

	s := NewSplitter(900, 150)
	passages := s.Split(text)

	if len(passages) < 2 {
		t.Fatalf("oversized section must split into windows, got %d", len(passages))
	}
	for i, p := range passages {
		if p.SectionTitle != "SECTION 1 Long" {
			t.Fatalf("window %d lost its section title: %q", i, p.SectionTitle)
		}
		if len([]rune(p.Text)) > 900 {
			t.Fatalf("window %d exceeds chunk size: %d", i, len([]rune(p.Text)))
		}
	}
}

func TestSplitTracksPageNumbers(t *testing.T) {
	text := "SECTION 1 Intro\npage one text\n\fSECTION 2 Terms\npage two text\n"

	passages := NewSplitter(900, 150).Split(text)
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].PageNumber != 1 {
		t.Fatalf("first passage page: want 1, got %d", passages[0].PageNumber)
	}
	if passages[1].PageNumber != 2 {
		t.Fatalf("second passage page: want 2, got %d", passages[1].PageNumber)
	}
}

func TestSplitEmptyAndWhitespace(t *testing.T) {
	s := NewSplitter(900, 150)
	if got := s.Split(""); len(got) != 0 {
		t.Fatalf("empty text must produce no passages, got %d", len(got))
	}
	if got := s.Split("   \n\n   "); len(got) != 0 {
		t.Fatalf("whitespace text must produce no passages, got %d", len(got))
	}
}

func TestLongLinesAreNotHeaders(t *testing.T) {
	long := "SECTION 1 " + strings.Repeat("x", 150)
	passages := NewSplitter(900, 150).Split("intro\n" + long + "\nmore body\n")

	for _, p := range passages {
		if p.SectionTitle != "" {
			t.Fatalf("over-long line must not become a section title: %q", p.SectionTitle)
		}
	}
}
