package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
)

const (
	defaultTopK              = 5
	defaultBreadthMultiplier = 3
)

// RetrievalParams are the tunable fusion knobs. They are configuration, not
// correctness requirements: any positive values keep the ranking lawful.
type RetrievalParams struct {
	// TopK is the default result count when the caller passes k <= 0.
	TopK int
	// RRFConstant is the smoothing constant K in 1/(K+rank).
	RRFConstant int
	// BreadthMultiplier widens the per-index candidate limit to
	// BreadthMultiplier*k so fusion has enough overlap to work with.
	BreadthMultiplier int
}

func (p RetrievalParams) normalize() RetrievalParams {
	out := p
	if out.TopK <= 0 {
		out.TopK = defaultTopK
	}
	if out.RRFConstant <= 0 {
		out.RRFConstant = defaultRRFConstant
	}
	if out.BreadthMultiplier <= 0 {
		out.BreadthMultiplier = defaultBreadthMultiplier
	}
	return out
}

// RetrieveUseCase orchestrates governed hybrid retrieval: both index queries
// run concurrently against one generation snapshot with the requester's
// access policy applied inside candidate generation, then the two rankings
// are fused and truncated.
type RetrieveUseCase struct {
	engine ports.RetrievalEngine
	audit  ports.AuditSink
	params RetrievalParams
	logger *slog.Logger
}

func NewRetrieveUseCase(
	engine ports.RetrievalEngine,
	audit ports.AuditSink,
	params RetrievalParams,
	logger *slog.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		engine: engine,
		audit:  audit,
		params: params.normalize(),
		logger: logger,
	}
}

// Retrieve returns at most k authorized, fused, deduplicated chunks. An empty
// result is not an error; it is the downstream signal to refuse rather than
// answer. Identical inputs always produce identical ordered output.
func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	queryText string,
	queryVector []float32,
	requester domain.RequesterContext,
	k int,
) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = uc.params.TopK
	}

	snapshot, err := uc.engine.Snapshot()
	if err != nil {
		return nil, err
	}

	policy := domain.NewAccessPolicy(requester)
	candidateLimit := k * uc.params.BreadthMultiplier
	if candidateLimit < k {
		candidateLimit = k
	}

	var (
		wg         sync.WaitGroup
		denseList  []domain.CandidateResult
		sparseList []domain.CandidateResult
		denseErr   error
		sparseErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		denseList, denseErr = snapshot.QueryVector(ctx, queryVector, policy, candidateLimit)
	}()
	go func() {
		defer wg.Done()
		sparseList, sparseErr = snapshot.QueryKeyword(ctx, queryText, policy, candidateLimit)
	}()
	wg.Wait()

	// A cancelled retrieval never reaches fusion.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if denseErr != nil {
		return nil, fmt.Errorf("dense query: %w", denseErr)
	}
	if sparseErr != nil {
		return nil, fmt.Errorf("sparse query: %w", sparseErr)
	}

	fused := trimFused(fuseRRF(denseList, sparseList, uc.params.RRFConstant), k)

	results := make([]domain.RetrievedChunk, 0, len(fused))
	for _, entry := range fused {
		chunk, ok := snapshot.ChunkByID(entry.ChunkID)
		if !ok {
			// Candidates and chunks come from the same generation, so a
			// miss here means an index implementation bug.
			return nil, fmt.Errorf("chunk %s missing from generation %d", entry.ChunkID, snapshot.Generation())
		}
		results = append(results, domain.RetrievedChunk{
			Chunk:   chunk,
			Score:   entry.Score,
			Methods: entry.Methods,
			Rank:    entry.Rank,
		})
	}

	uc.emitTrace(ctx, results)
	return results, nil
}

// emitTrace hands the audit record to the sink. Audit persistence is a
// collaborator concern: its failure is logged, never surfaced to the query.
func (uc *RetrieveUseCase) emitTrace(ctx context.Context, results []domain.RetrievedChunk) {
	if uc.audit == nil {
		return
	}
	trace := BuildTrace(domain.RequestIDFromContext(ctx), results)
	if err := uc.audit.RecordTrace(ctx, trace); err != nil {
		uc.logger.Warn("audit_trace_failed",
			"request_id", trace.RequestID,
			"entries", len(trace.Entries),
			"error", err,
		)
	}
}
