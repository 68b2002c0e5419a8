package ports

import (
	"context"
	"io"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, accessTags []string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document
// processing. ProcessByID reports how many chunks the document produced.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) (int, error)
}

// Retriever is the inbound contract for governed hybrid retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string, queryVector []float32, requester domain.RequesterContext, k int) ([]domain.RetrievedChunk, error)
}

// QueryService answers questions against the governed corpus.
type QueryService interface {
	Query(ctx context.Context, question string, requester domain.RequesterContext, k int) ([]domain.RetrievedChunk, error)
	Answer(ctx context.Context, question string, requester domain.RequesterContext, k int) (*domain.Answer, error)
}

// CorpusRefresher rebuilds the in-memory indexes from the persisted corpus.
type CorpusRefresher interface {
	Reload(ctx context.Context) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
