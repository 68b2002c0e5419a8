package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

// IndexSnapshot is a consistent, read-only view of one index generation.
// A retrieval request performs every lookup against a single snapshot, so a
// refresh racing the request can never mix chunks from two generations.
type IndexSnapshot interface {
	// QueryKeyword runs ranked lexical retrieval. The access policy is
	// evaluated per candidate before any scoring happens.
	QueryKeyword(ctx context.Context, text string, policy domain.AccessPolicy, limit int) ([]domain.CandidateResult, error)
	// QueryVector runs ranked similarity retrieval under the same pre-filter
	// rule. Returns domain.ErrDimensionMismatch for a wrong-sized vector.
	QueryVector(ctx context.Context, queryVector []float32, policy domain.AccessPolicy, limit int) ([]domain.CandidateResult, error)
	// ChunkByID resolves a chunk within this generation.
	ChunkByID(id string) (domain.Chunk, bool)
	// Generation identifies the corpus build this snapshot belongs to.
	Generation() uint64
}

// RetrievalEngine owns the memory-resident index generations.
type RetrievalEngine interface {
	// Load installs the first generation; Refresh replaces it atomically.
	// A failed build never partially swaps into service.
	Load(chunks []domain.Chunk) error
	Refresh(chunks []domain.Chunk) error
	// Snapshot returns the current generation, or domain.ErrNotReady before
	// the first successful Load.
	Snapshot() (IndexSnapshot, error)
	Ready() bool
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ChunkRepository persists the immutable chunk corpus.
type ChunkRepository interface {
	ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	ListAll(ctx context.Context) ([]domain.Chunk, error)
}

// AuditSink receives retrieval traces keyed by request ID.
type AuditSink interface {
	RecordTrace(ctx context.Context, trace domain.RetrievalTrace) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries ingestion and corpus-refresh events. Subscribe calls
// return once the subscription is active; delivery continues until ctx ends.
// The ingest handler receives the time the document waited in the queue.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(ctx context.Context, documentID string, lag time.Duration) error) error
	PublishCorpusUpdated(ctx context.Context, documentID string) error
	SubscribeCorpusUpdated(ctx context.Context, handler func(ctx context.Context, documentID string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into passages with structural labels.
type Chunker interface {
	Split(text string) []domain.Passage
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator creates the final grounded answer text.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
}
