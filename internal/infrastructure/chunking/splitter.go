package chunking

import (
	"regexp"
	"strings"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

// Structural header lines open a new section; the header text becomes the
// section title carried into citations. Covers legal and tender document
// conventions: "ARTICLE 4", "SECTION 2.1", "3.4.1 Scope", "A-12 Appendix",
// and markdown headings.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i)(ARTICLE|SECTION|PART|CHAPTER|APPENDIX|ANNEX|SCHEDULE)\s+[0-9IVXLC]+[A-Za-z0-9.\-]*\b.*$`),
	regexp.MustCompile(`^\d+(\.\d+)+\.?\s+\S.*$`),
	regexp.MustCompile(`^[A-Z]-\d+\s+\S.*$`),
	regexp.MustCompile(`^#{1,6}\s+\S.*$`),
}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text at structural headers first, then windows oversized
// sections so each passage stays within the chunk size. Page numbers are
// incremented at form-feed markers left by PDF extraction.
func (s *Splitter) Split(text string) []domain.Passage {
	sections := s.splitSections(text)

	var passages []domain.Passage
	for _, sec := range sections {
		for _, window := range s.window(sec.body) {
			passages = append(passages, domain.Passage{
				Text:         window,
				SectionTitle: sec.title,
				PageNumber:   sec.page,
			})
		}
	}
	return passages
}

type section struct {
	title string
	body  string
	page  int
}

func (s *Splitter) splitSections(text string) []section {
	var sections []section
	var body strings.Builder
	title := ""
	page := 1
	// sectionPage is the page the current section started on; a section
	// spanning a page break keeps its opening page for citations.
	sectionPage := 1

	flush := func() {
		trimmed := strings.TrimSpace(body.String())
		if trimmed != "" {
			sections = append(sections, section{title: title, body: trimmed, page: sectionPage})
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		page += strings.Count(line, "\f")
		line = strings.ReplaceAll(line, "\f", "")
		trimmed := strings.TrimSpace(line)

		if isHeader(trimmed) {
			flush()
			title = strings.TrimLeft(trimmed, "# ")
			sectionPage = page
			body.WriteString(trimmed)
			body.WriteString("\n")
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()
	return sections
}

func isHeader(line string) bool {
	if line == "" || len(line) > 120 {
		return false
	}
	for _, pattern := range headerPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// window applies the rune-based sliding window with overlap inside one
// section. Most sections fit in a single window.
func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
