package nats

import (
	"testing"
	"time"
)

func TestIngestEventRoundTrip(t *testing.T) {
	enqueued := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	payload, err := encodeIngestEvent("doc-7", enqueued)
	if err != nil {
		t.Fatalf("encodeIngestEvent() error = %v", err)
	}

	documentID, enqueuedAt := decodeIngestEvent(payload)
	if documentID != "doc-7" {
		t.Fatalf("document id: got %q", documentID)
	}
	if !enqueuedAt.Equal(enqueued) {
		t.Fatalf("enqueued at: got %v, want %v", enqueuedAt, enqueued)
	}
}

func TestDecodeIngestEventAcceptsBareDocumentID(t *testing.T) {
	documentID, enqueuedAt := decodeIngestEvent([]byte("doc-legacy"))
	if documentID != "doc-legacy" {
		t.Fatalf("document id: got %q", documentID)
	}
	if !enqueuedAt.IsZero() {
		t.Fatalf("bare payload has no enqueue time, got %v", enqueuedAt)
	}
}

func TestDecodeIngestEventRejectsEmptyEnvelope(t *testing.T) {
	documentID, _ := decodeIngestEvent([]byte(`{"enqueued_at":"2026-08-26T10:00:00Z"}`))
	if documentID != `{"enqueued_at":"2026-08-26T10:00:00Z"}` {
		t.Fatalf("envelope without document_id falls back to the raw payload, got %q", documentID)
	}
}
