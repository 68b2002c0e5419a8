package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

func newChunkRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestReplaceDocumentChunksIsTransactional(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	chunks := []domain.Chunk{
		{ID: "doc-1:0000", DocumentID: "doc-1", Position: 0, Text: "one", Embedding: []float32{1, 0}, AccessTags: []string{"legal"}},
		{ID: "doc-1:0001", DocumentID: "doc-1", Position: 1, Text: "two", Embedding: []float32{0, 1}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("doc-1:0000", "doc-1", 0, "one", "", 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("doc-1:0001", "doc-1", 1, "two", "", 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.ReplaceDocumentChunks(context.Background(), "doc-1", chunks); err != nil {
		t.Fatalf("ReplaceDocumentChunks: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceDocumentChunksRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO chunks").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.ReplaceDocumentChunks(context.Background(), "doc-1", []domain.Chunk{
		{ID: "doc-1:0000", DocumentID: "doc-1", Embedding: []float32{1}},
	})
	if err == nil {
		t.Fatalf("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAllDecodesEmbeddingsAndTags(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "position", "text", "section_title", "page_number", "embedding", "access_tags",
	}).
		AddRow("doc-1:0000", "doc-1", 0, "one", "SECTION 1", 1, []byte(`[0.5,0.5]`), []byte(`["legal"]`)).
		AddRow("doc-1:0001", "doc-1", 1, "two", "", 2, []byte(`[1,0]`), []byte(`[]`))

	mock.ExpectQuery("SELECT c.id, c.document_id").
		WithArgs(string(domain.StatusReady)).
		WillReturnRows(rows)

	chunks, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Embedding) != 2 || chunks[0].Embedding[0] != 0.5 {
		t.Fatalf("embedding decode failed: %v", chunks[0].Embedding)
	}
	if len(chunks[0].AccessTags) != 1 || chunks[0].AccessTags[0] != "legal" {
		t.Fatalf("access tags decode failed: %v", chunks[0].AccessTags)
	}
	if chunks[1].PageNumber != 2 {
		t.Fatalf("page number: want 2, got %d", chunks[1].PageNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
