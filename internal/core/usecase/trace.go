package usecase

import "github.com/kirillkom/governed-rag/internal/core/domain"

// BuildTrace converts a fused ranking into its audit record. The transform is
// read-only and drops chunk text entirely: document ID plus section title is
// all a citation pointer needs, and keeping content out of logs is the point.
func BuildTrace(requestID string, results []domain.RetrievedChunk) domain.RetrievalTrace {
	entries := make([]domain.TraceEntry, 0, len(results))
	for _, result := range results {
		methods := make([]domain.RetrievalMethod, len(result.Methods))
		copy(methods, result.Methods)
		entries = append(entries, domain.TraceEntry{
			ChunkID:      result.Chunk.ID,
			DocumentID:   result.Chunk.DocumentID,
			SectionTitle: result.Chunk.SectionTitle,
			Score:        result.Score,
			Methods:      methods,
			Rank:         result.Rank,
		})
	}
	return domain.RetrievalTrace{
		RequestID: requestID,
		Entries:   entries,
	}
}
