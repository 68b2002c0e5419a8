package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
)

// ProcessDocumentUseCase runs the worker-side pipeline for one uploaded
// document: extract, chunk, embed, persist the chunk corpus, and announce
// the corpus change so serving instances rebuild their indexes.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	chunks    ports.ChunkRepository
	queue     ports.MessageQueue
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	chunks ports.ChunkRepository,
	queue ports.MessageQueue,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		chunks:    chunks,
		queue:     queue,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) (int, error) {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return 0, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return 0, err
	}

	if err := uc.repo.SetChunkCount(ctx, documentID, count); err != nil {
		return 0, fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return 0, fmt.Errorf("set status=ready: %w", err)
	}

	if err := uc.queue.PublishCorpusUpdated(ctx, documentID); err != nil {
		return 0, fmt.Errorf("publish corpus update: %w", err)
	}
	return count, nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	passages := uc.chunker.Split(text)
	if len(passages) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero passages"))
	}

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(passages) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/passages mismatch: %d/%d", len(vectors), len(passages)),
		)
	}

	corpus := buildChunks(doc, passages, vectors)
	if err := uc.chunks.ReplaceDocumentChunks(ctx, doc.ID, corpus); err != nil {
		return 0, fmt.Errorf("persist chunk corpus: %w", err)
	}
	return len(corpus), nil
}

// buildChunks assigns stable, position-derived chunk IDs so re-processing a
// document yields the same identifiers, keeping audit traces comparable
// across refreshes.
func buildChunks(doc *domain.Document, passages []domain.Passage, vectors [][]float32) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(passages))
	for i, passage := range passages {
		out = append(out, domain.Chunk{
			ID:           fmt.Sprintf("%s:%04d", doc.ID, i),
			DocumentID:   doc.ID,
			Position:     i,
			Text:         passage.Text,
			SectionTitle: passage.SectionTitle,
			PageNumber:   passage.PageNumber,
			Embedding:    vectors[i],
			AccessTags:   doc.AccessTags,
		})
	}
	return out
}
