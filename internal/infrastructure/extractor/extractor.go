package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
)

// Composite routes extraction by file extension. Unknown formats fall back
// to the plain text extractor, which surfaces an error when the payload is
// not valid UTF-8 text.
type Composite struct {
	byExtension map[string]ports.TextExtractor
	fallback    ports.TextExtractor
}

func NewComposite(fallback ports.TextExtractor) *Composite {
	return &Composite{
		byExtension: make(map[string]ports.TextExtractor),
		fallback:    fallback,
	}
}

func (c *Composite) Register(extension string, extractor ports.TextExtractor) {
	c.byExtension[normalizeExtension(extension)] = extractor
}

func (c *Composite) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ext := normalizeExtension(filepath.Ext(doc.Filename))
	if e, ok := c.byExtension[ext]; ok {
		return e.Extract(ctx, doc)
	}
	return c.fallback.Extract(ctx, doc)
}

func normalizeExtension(extension string) string {
	return strings.ToLower(strings.TrimPrefix(extension, "."))
}
