// Package index owns the memory-resident retrieval generations. A generation
// bundles the sparse index, the dense index, and the chunk map built from one
// corpus snapshot; it is installed atomically and immutable afterwards.
// Queries pin the generation they started with, so a refresh racing a query
// can never serve a mixture of two corpus builds.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
	"github.com/kirillkom/governed-rag/internal/infrastructure/index/dense"
	"github.com/kirillkom/governed-rag/internal/infrastructure/index/sparse"
)

// Options tune index construction. Zero values fall back to defaults.
type Options struct {
	BM25 sparse.Params
}

// Engine implements ports.RetrievalEngine with copy-on-write generation
// swapping: Refresh builds the complete new generation off to the side and
// installs it with a single atomic pointer store. Readers holding the old
// generation keep it alive until they finish; the garbage collector is the
// arena.
type Engine struct {
	opts    Options
	logger  *slog.Logger
	current atomic.Pointer[generation]
	counter atomic.Uint64
}

func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

// Load installs the first generation. Serving before Load has succeeded
// fails closed with domain.ErrNotReady.
func (e *Engine) Load(chunks []domain.Chunk) error {
	return e.install(chunks)
}

// Refresh replaces the serving generation. A failed build leaves the prior
// generation untouched and in service.
func (e *Engine) Refresh(chunks []domain.Chunk) error {
	return e.install(chunks)
}

func (e *Engine) install(chunks []domain.Chunk) error {
	gen, err := e.build(chunks)
	if err != nil {
		return err
	}
	e.current.Store(gen)
	e.logger.Info("index_generation_installed",
		"generation", gen.id,
		"chunks", len(gen.chunks),
		"dimension", gen.dense.Dimension(),
	)
	return nil
}

func (e *Engine) build(chunks []domain.Chunk) (*generation, error) {
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build generation",
				fmt.Errorf("chunk with empty id (document %s)", chunk.DocumentID))
		}
		if _, dup := byID[chunk.ID]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build generation",
				fmt.Errorf("duplicate chunk id %s", chunk.ID))
		}
		byID[chunk.ID] = chunk
	}

	denseIdx, err := dense.Build(chunks)
	if err != nil {
		return nil, err
	}

	return &generation{
		id:     e.counter.Add(1),
		chunks: byID,
		sparse: sparse.Build(chunks, e.opts.BM25),
		dense:  denseIdx,
	}, nil
}

// Ready reports whether a generation is installed.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Snapshot returns the serving generation for the duration of one request.
func (e *Engine) Snapshot() (ports.IndexSnapshot, error) {
	gen := e.current.Load()
	if gen == nil {
		return nil, domain.ErrNotReady
	}
	return gen, nil
}

// Generation reports the id of the serving generation, 0 when none.
func (e *Engine) Generation() uint64 {
	gen := e.current.Load()
	if gen == nil {
		return 0
	}
	return gen.id
}

// Size reports the chunk count of the serving generation, 0 when none.
func (e *Engine) Size() int {
	gen := e.current.Load()
	if gen == nil {
		return 0
	}
	return len(gen.chunks)
}

type generation struct {
	id     uint64
	chunks map[string]domain.Chunk
	sparse *sparse.Index
	dense  *dense.Index
}

func (g *generation) QueryKeyword(ctx context.Context, text string, policy domain.AccessPolicy, limit int) ([]domain.CandidateResult, error) {
	return g.sparse.Query(ctx, text, policy, limit)
}

func (g *generation) QueryVector(ctx context.Context, queryVector []float32, policy domain.AccessPolicy, limit int) ([]domain.CandidateResult, error) {
	return g.dense.Query(ctx, queryVector, policy, limit)
}

func (g *generation) ChunkByID(id string) (domain.Chunk, bool) {
	chunk, ok := g.chunks[id]
	return chunk, ok
}

func (g *generation) Generation() uint64 {
	return g.id
}
