package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

func readyDoc() *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		Filename:   "policy.txt",
		AccessTags: []string{"legal"},
		Status:     domain.StatusUploaded,
	}
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo := &docRepoFake{doc: readyDoc()}
	chunks := &chunkRepoFake{}
	queue := &queueFake{}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: "first passage\n\nsecond passage"}, chunkerFake{}, &embedderFake{}, chunks, queue)

	count, err := uc.ProcessByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if count != 2 {
		t.Fatalf("produced chunk count: want 2, got %d", count)
	}

	stored := chunks.replaced["doc-1"]
	if len(stored) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(stored))
	}
	for i, chunk := range stored {
		wantID := fmt.Sprintf("doc-1:%04d", i)
		if chunk.ID != wantID {
			t.Fatalf("chunk %d id: want %s, got %s", i, wantID, chunk.ID)
		}
		if len(chunk.AccessTags) != 1 || chunk.AccessTags[0] != "legal" {
			t.Fatalf("chunk %d must inherit document access tags, got %v", i, chunk.AccessTags)
		}
		if len(chunk.Embedding) == 0 {
			t.Fatalf("chunk %d missing embedding", i)
		}
	}

	if repo.count != 2 {
		t.Fatalf("chunk count: want 2, got %d", repo.count)
	}
	wantStatuses := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusReady}
	if len(repo.statuses) != 2 || repo.statuses[0] != wantStatuses[0] || repo.statuses[1] != wantStatuses[1] {
		t.Fatalf("status transitions: want %v, got %v", wantStatuses, repo.statuses)
	}
	if len(queue.updated) != 1 || queue.updated[0] != "doc-1" {
		t.Fatalf("corpus update not published: %v", queue.updated)
	}
}

func TestProcessByIDMarksFailedOnExtractionError(t *testing.T) {
	repo := &docRepoFake{doc: readyDoc()}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{err: errors.New("corrupt pdf")}, chunkerFake{}, &embedderFake{}, &chunkRepoFake{}, &queueFake{})

	_, err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected extraction error")
	}

	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", last)
	}
	if repo.errorMsg == "" {
		t.Fatalf("expected failure message persisted")
	}
}

func TestProcessByIDRejectsEmptyText(t *testing.T) {
	repo := &docRepoFake{doc: readyDoc()}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: ""}, chunkerFake{}, &embedderFake{}, &chunkRepoFake{}, &queueFake{})

	_, err := uc.ProcessByID(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty text, got %v", err)
	}
}

func TestProcessByIDFailsOnEmbeddingMismatch(t *testing.T) {
	repo := &docRepoFake{doc: readyDoc()}
	embedder := &embedderFake{err: errors.New("embedder down")}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: "one\n\ntwo"}, chunkerFake{}, embedder, &chunkRepoFake{}, &queueFake{})

	_, err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected embedding error")
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("embedding failure must mark document failed")
	}
}

func TestProcessByIDUnknownDocument(t *testing.T) {
	repo := &docRepoFake{}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: "x"}, chunkerFake{}, &embedderFake{}, &chunkRepoFake{}, &queueFake{})

	_, err := uc.ProcessByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
