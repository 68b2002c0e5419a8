package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

const maxChunkChars = 4000

// buildAnswerPrompt labels every context chunk [C1], [C2], ... and binds the
// model to them. The INSUFFICIENT_CONTEXT marker is the machine-readable
// refusal the answer gate checks for.
func buildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	var contextBuilder strings.Builder
	for idx, retrieved := range chunks {
		text := retrieved.Chunk.Text
		if len(text) > maxChunkChars {
			text = text[:maxChunkChars]
		}
		section := retrieved.Chunk.SectionTitle
		if section == "" {
			section = "untitled"
		}
		contextBuilder.WriteString(fmt.Sprintf(
			"[C%d] document=%s section=%q score=%.4f\n%s\n\n",
			idx+1,
			retrieved.Chunk.DocumentID,
			section,
			retrieved.Score,
			text,
		))
	}

	return fmt.Sprintf(`You are a compliance assistant. Answer the question using ONLY the context excerpts below.

Rules:
- Every factual claim must cite its excerpt label, e.g. [C1] or [C2].
- If the excerpts do not contain enough information to answer, reply with exactly:
INSUFFICIENT_CONTEXT: followed by one sentence naming what is missing.
- Never use knowledge outside the excerpts.

Question:
%s

Context excerpts:
%s`, question, contextBuilder.String())
}
