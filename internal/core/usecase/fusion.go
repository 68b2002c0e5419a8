package usecase

import (
	"sort"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

const defaultRRFConstant = 60

type fusedAccumulator struct {
	score   float64
	methods []domain.RetrievalMethod
}

// fuseRRF merges the dense and sparse candidate lists with reciprocal rank
// fusion: every list containing a chunk contributes 1/(K+rank) to its fused
// score. Fusion is purely ordinal, so the two raw score scales never need
// calibration against each other. The output order is fully deterministic:
// fused score descending, then presence in both lists over presence in one,
// then ascending chunk ID.
func fuseRRF(dense, sparse []domain.CandidateResult, rrfK int) []domain.FusedResult {
	if rrfK <= 0 {
		rrfK = defaultRRFConstant
	}

	acc := make(map[string]*fusedAccumulator, len(dense)+len(sparse))
	addList := func(list []domain.CandidateResult, method domain.RetrievalMethod) {
		for _, candidate := range list {
			entry := acc[candidate.ChunkID]
			if entry == nil {
				entry = &fusedAccumulator{}
				acc[candidate.ChunkID] = entry
			}
			entry.score += 1.0 / float64(rrfK+candidate.Rank)
			entry.methods = append(entry.methods, method)
		}
	}
	addList(dense, domain.MethodDense)
	addList(sparse, domain.MethodSparse)

	out := make([]domain.FusedResult, 0, len(acc))
	for chunkID, entry := range acc {
		out = append(out, domain.FusedResult{
			ChunkID: chunkID,
			Score:   entry.score,
			Methods: entry.methods,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Methods) != len(out[j].Methods) {
			return len(out[i].Methods) > len(out[j].Methods)
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func trimFused(results []domain.FusedResult, limit int) []domain.FusedResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
