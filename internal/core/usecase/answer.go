package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
)

// RefusalPrefix is the marker the generator is instructed to emit when the
// provided context cannot support an answer.
const RefusalPrefix = "INSUFFICIENT_CONTEXT"

const emptyCorpusRefusal = "INSUFFICIENT_CONTEXT: no authorized documents matched the question."

// QueryUseCase is the synthesis gate: it embeds the question, runs governed
// retrieval, and only invokes the generator when authorized context exists.
type QueryUseCase struct {
	embedder  ports.Embedder
	retriever ports.Retriever
	generator ports.AnswerGenerator
}

func NewQueryUseCase(
	embedder ports.Embedder,
	retriever ports.Retriever,
	generator ports.AnswerGenerator,
) *QueryUseCase {
	return &QueryUseCase{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
	}
}

// Query runs retrieval only, without synthesis.
func (uc *QueryUseCase) Query(
	ctx context.Context,
	question string,
	requester domain.RequesterContext,
	k int,
) ([]domain.RetrievedChunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return uc.retriever.Retrieve(ctx, question, queryVector, requester, k)
}

// Answer retrieves and synthesizes. An empty retrieval produces a refusal
// without ever calling the generator, so the model cannot be tempted to
// answer from its own knowledge.
func (uc *QueryUseCase) Answer(
	ctx context.Context,
	question string,
	requester domain.RequesterContext,
	k int,
) (*domain.Answer, error) {
	chunks, err := uc.Query(ctx, question, requester, k)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &domain.Answer{
			Text:      emptyCorpusRefusal,
			Refused:   true,
			Citations: []domain.Citation{},
			Sources:   []domain.RetrievedChunk{},
		}, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:      text,
		Refused:   strings.HasPrefix(strings.TrimSpace(text), RefusalPrefix),
		Citations: citationsFrom(chunks),
		Sources:   chunks,
	}, nil
}

func citationsFrom(chunks []domain.RetrievedChunk) []domain.Citation {
	citations := make([]domain.Citation, 0, len(chunks))
	for _, chunk := range chunks {
		citations = append(citations, domain.Citation{
			ChunkID:      chunk.Chunk.ID,
			DocumentID:   chunk.Chunk.DocumentID,
			SectionTitle: chunk.Chunk.SectionTitle,
			PageNumber:   chunk.Chunk.PageNumber,
		})
	}
	return citations
}
