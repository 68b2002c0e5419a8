// Package dense implements the semantic half of the retrieval engine: an
// exhaustive cosine-similarity scan over normalized chunk embeddings. The
// corpus sizes this engine serves fit comfortably in memory, and a full scan
// is the only strategy that lets the access predicate reject a chunk before
// any similarity is computed; an approximate top-N structure searched first
// and filtered second could starve authorized results.
package dense

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

// cancelCheckStride bounds how many vectors are scanned between context
// checks during a query.
const cancelCheckStride = 1024

type entry struct {
	chunkID    string
	vector     []float32
	accessTags []string
}

// Index is an immutable flat vector index over one corpus generation.
// Entries are held in ascending chunk ID order so scans are deterministic.
type Index struct {
	dim     int
	entries []entry
}

// Build normalizes and stores every chunk embedding. All vectors must share
// one dimensionality; a mixed corpus is a caller-contract violation that
// aborts the build rather than producing a half-usable index.
func Build(chunks []domain.Chunk) (*Index, error) {
	idx := &Index{}
	if len(chunks) == 0 {
		return idx, nil
	}

	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	idx.dim = len(ordered[0].Embedding)
	if idx.dim == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build dense index",
			fmt.Errorf("chunk %s has no embedding", ordered[0].ID))
	}
	idx.entries = make([]entry, 0, len(ordered))

	for _, chunk := range ordered {
		if len(chunk.Embedding) != idx.dim {
			return nil, domain.WrapError(domain.ErrDimensionMismatch, "build dense index",
				fmt.Errorf("chunk %s has dimension %d, index has %d", chunk.ID, len(chunk.Embedding), idx.dim))
		}
		idx.entries = append(idx.entries, entry{
			chunkID:    chunk.ID,
			vector:     normalize(chunk.Embedding),
			accessTags: chunk.AccessTags,
		})
	}
	return idx, nil
}

// Dimension returns the vector size the index was built with, 0 when empty.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return len(idx.entries)
}

// Query returns at most limit chunks ranked by descending cosine similarity,
// ties broken by ascending chunk ID, 1-based ranks. The access policy gates
// every entry before its similarity is computed. A query vector of the wrong
// dimensionality is rejected immediately, never truncated or padded.
func (idx *Index) Query(ctx context.Context, queryVector []float32, policy domain.AccessPolicy, limit int) ([]domain.CandidateResult, error) {
	if len(idx.entries) == 0 || limit <= 0 {
		return nil, nil
	}
	if len(queryVector) != idx.dim {
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "dense query",
			fmt.Errorf("query has dimension %d, index has %d", len(queryVector), idx.dim))
	}

	query := normalize(queryVector)
	results := make([]domain.CandidateResult, 0, limit)

	for i := range idx.entries {
		if i%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		e := &idx.entries[i]
		if !policy.Visible(e.accessTags) {
			continue
		}
		results = append(results, domain.CandidateResult{
			ChunkID: e.chunkID,
			Score:   dot(query, e.vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy; a zero vector stays zero and simply
// scores 0 against everything.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
