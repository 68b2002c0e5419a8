package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
)

type fakeSnapshot struct {
	dense      []domain.CandidateResult
	sparse     []domain.CandidateResult
	chunks     map[string]domain.Chunk
	generation uint64
	denseErr   error
	sparseErr  error
}

func (f *fakeSnapshot) QueryKeyword(_ context.Context, _ string, _ domain.AccessPolicy, limit int) ([]domain.CandidateResult, error) {
	if f.sparseErr != nil {
		return nil, f.sparseErr
	}
	return capList(f.sparse, limit), nil
}

func (f *fakeSnapshot) QueryVector(_ context.Context, _ []float32, _ domain.AccessPolicy, limit int) ([]domain.CandidateResult, error) {
	if f.denseErr != nil {
		return nil, f.denseErr
	}
	return capList(f.dense, limit), nil
}

func (f *fakeSnapshot) ChunkByID(id string) (domain.Chunk, bool) {
	chunk, ok := f.chunks[id]
	return chunk, ok
}

func (f *fakeSnapshot) Generation() uint64 { return f.generation }

func capList(list []domain.CandidateResult, limit int) []domain.CandidateResult {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

type fakeEngine struct {
	snapshot ports.IndexSnapshot
	err      error
}

func (f *fakeEngine) Load([]domain.Chunk) error    { return nil }
func (f *fakeEngine) Refresh([]domain.Chunk) error { return nil }
func (f *fakeEngine) Ready() bool                  { return f.err == nil }
func (f *fakeEngine) Snapshot() (ports.IndexSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type fakeAudit struct {
	traces []domain.RetrievalTrace
	err    error
}

func (f *fakeAudit) RecordTrace(_ context.Context, trace domain.RetrievalTrace) error {
	if f.err != nil {
		return f.err
	}
	f.traces = append(f.traces, trace)
	return nil
}

func candidates(ids ...string) []domain.CandidateResult {
	out := make([]domain.CandidateResult, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.CandidateResult{ChunkID: id, Score: 1.0 / float64(i+1), Rank: i + 1})
	}
	return out
}

func chunkMap(ids ...string) map[string]domain.Chunk {
	out := make(map[string]domain.Chunk, len(ids))
	for _, id := range ids {
		out[id] = domain.Chunk{ID: id, DocumentID: "doc-" + id, Text: "text " + id}
	}
	return out
}

type docRepoFake struct {
	created  *domain.Document
	doc      *domain.Document
	statuses []domain.DocumentStatus
	errorMsg string
	count    int
	err      error
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.doc == nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("no fixture"))
	}
	return f.doc, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statuses = append(f.statuses, status)
	if errMessage != "" {
		f.errorMsg = errMessage
	}
	return nil
}

func (f *docRepoFake) SetChunkCount(_ context.Context, _ string, count int) error {
	f.count = count
	return nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type queueFake struct {
	ingested []string
	updated  []string
	err      error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.ingested = append(f.ingested, documentID)
	return nil
}

func (f *queueFake) PublishCorpusUpdated(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string, time.Duration) error) error {
	return errors.New("not implemented")
}

func (f *queueFake) SubscribeCorpusUpdated(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type chunkRepoFake struct {
	replaced map[string][]domain.Chunk
	listed   []domain.Chunk
	err      error
}

func (f *chunkRepoFake) ReplaceDocumentChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]domain.Chunk)
	}
	f.replaced[documentID] = chunks
	return nil
}

func (f *chunkRepoFake) ListAll(context.Context) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listed, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	return f.text, f.err
}

type chunkerFake struct{}

func (chunkerFake) Split(text string) []domain.Passage {
	var passages []domain.Passage
	for _, part := range strings.Split(text, "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			passages = append(passages, domain.Passage{Text: part, SectionTitle: "SECTION 1", PageNumber: 1})
		}
	}
	return passages
}

type embedderFake struct {
	queryVector []float32
	err         error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.queryVector != nil {
		return f.queryVector, nil
	}
	return []float32{1, 0, 0}, nil
}

type retrieverFake struct {
	results []domain.RetrievedChunk
	err     error
}

func (f *retrieverFake) Retrieve(context.Context, string, []float32, domain.RequesterContext, int) ([]domain.RetrievedChunk, error) {
	return f.results, f.err
}

type generatorFake struct {
	answer string
	err    error
	calls  int
}

func (f *generatorFake) GenerateAnswer(context.Context, string, []domain.RetrievedChunk) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func retrievedChunk(id string, rank int) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			ID:           id,
			DocumentID:   "doc-" + id,
			SectionTitle: fmt.Sprintf("SECTION %d", rank),
			Text:         "text " + id,
		},
		Score:   1.0 / float64(rank),
		Methods: []domain.RetrievalMethod{domain.MethodDense},
		Rank:    rank,
	}
}
