// Package sparse implements the lexical half of the retrieval engine: an
// in-memory inverted index scored with BM25. An index is built once from an
// immutable chunk set and is read-only afterwards, so concurrent queries
// need no locking.
package sparse

import (
	"context"
	"math"
	"sort"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// Params are the BM25 shape constants: K1 saturates term frequency, B sets
// how hard document length is penalized.
type Params struct {
	K1 float64
	B  float64
}

func (p Params) normalize() Params {
	out := p
	if out.K1 <= 0 {
		out.K1 = defaultK1
	}
	if out.B < 0 || out.B > 1 {
		out.B = defaultB
	}
	return out
}

type posting struct {
	chunkID string
	tf      int
}

type chunkMeta struct {
	length     int
	accessTags []string
}

// Index is an immutable inverted index over one corpus generation.
type Index struct {
	params    Params
	postings  map[string][]posting
	chunkMeta map[string]chunkMeta
	avgLength float64
	total     int
}

// Build tokenizes every chunk and constructs the posting lists. Postings are
// kept in ascending chunk ID order so score accumulation walks candidates in
// a stable order.
func Build(chunks []domain.Chunk, params Params) *Index {
	idx := &Index{
		params:    params.normalize(),
		postings:  make(map[string][]posting),
		chunkMeta: make(map[string]chunkMeta, len(chunks)),
	}

	totalTokens := 0
	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, chunk := range ordered {
		tokens := Tokenize(chunk.Text)
		idx.chunkMeta[chunk.ID] = chunkMeta{
			length:     len(tokens),
			accessTags: chunk.AccessTags,
		}
		totalTokens += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for term, count := range tf {
			idx.postings[term] = append(idx.postings[term], posting{chunkID: chunk.ID, tf: count})
		}
	}

	// Term maps iterate randomly; re-sort each posting list by chunk ID.
	for term := range idx.postings {
		list := idx.postings[term]
		sort.Slice(list, func(i, j int) bool { return list[i].chunkID < list[j].chunkID })
		idx.postings[term] = list
	}

	idx.total = len(ordered)
	if idx.total > 0 {
		idx.avgLength = float64(totalTokens) / float64(idx.total)
	}
	return idx
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return idx.total
}

// Query scores visible chunks with BM25 and returns at most limit results
// ordered by descending score, ties broken by ascending chunk ID, each
// annotated with its 1-based rank. The access policy is evaluated per
// candidate before any scoring: a chunk the requester may not see never
// enters the accumulator, so its content cannot influence scores, ranks,
// or timing beyond the single visibility check.
func (idx *Index) Query(ctx context.Context, text string, policy domain.AccessPolicy, limit int) ([]domain.CandidateResult, error) {
	terms := Tokenize(text)
	if len(terms) == 0 || idx.total == 0 || limit <= 0 {
		return nil, nil
	}

	scores := make(map[string]float64)
	visibility := make(map[string]bool)

	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list := idx.postings[term]
		if len(list) == 0 {
			continue
		}

		n := float64(len(list))
		total := float64(idx.total)
		idf := math.Log((total-n+0.5)/(n+0.5) + 1)

		for _, p := range list {
			visible, checked := visibility[p.chunkID]
			if !checked {
				visible = policy.Visible(idx.chunkMeta[p.chunkID].accessTags)
				visibility[p.chunkID] = visible
			}
			if !visible {
				continue
			}

			docLen := float64(idx.chunkMeta[p.chunkID].length)
			tf := float64(p.tf)
			norm := idx.params.K1 * (1 - idx.params.B + idx.params.B*docLen/idx.avgLength)
			scores[p.chunkID] += idf * (tf * (idx.params.K1 + 1)) / (tf + norm)
		}
	}

	results := make([]domain.CandidateResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, domain.CandidateResult{ChunkID: chunkID, Score: score})
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
