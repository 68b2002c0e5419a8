package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/governed-rag/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

// Queue carries two flows over one connection: document ingestion fan-out to
// a worker queue group, and corpus-updated broadcasts every API replica must
// observe.
type Queue struct {
	conn          *nats.Conn
	ingestSubject string
	corpusSubject string
	executor      *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

// ingestEvent is the wire form on the ingest subject. EnqueuedAt lets the
// worker report queue lag without a clock shared through the database.
type ingestEvent struct {
	DocumentID string    `json:"document_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func New(url, ingestSubject, corpusSubject string) (*Queue, error) {
	return NewWithOptions(url, ingestSubject, corpusSubject, Options{})
}

func NewWithOptions(url, ingestSubject, corpusSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("governed-rag"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		ingestSubject: ingestSubject,
		corpusSubject: corpusSubject,
		executor:      options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	payload, err := encodeIngestEvent(documentID, time.Now().UTC())
	if err != nil {
		return err
	}
	return q.publish(ctx, q.ingestSubject, payload)
}

func (q *Queue) PublishCorpusUpdated(ctx context.Context, documentID string) error {
	return q.publish(ctx, q.corpusSubject, []byte(documentID))
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, publishVerdict)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return asTemporary(err)
	}
	return nil
}

// SubscribeDocumentIngested joins the "workers" queue group so each ingested
// document is processed by exactly one worker replica. The subscription is
// registered and flushed before this returns; delivery runs until ctx ends.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string, time.Duration) error) error {
	sub, err := q.conn.QueueSubscribe(q.ingestSubject, "workers", func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		documentID, enqueuedAt := decodeIngestEvent(msg.Data)
		lag := time.Duration(0)
		if !enqueuedAt.IsZero() {
			lag = time.Since(enqueuedAt)
		}
		if err := handler(ctx, documentID, lag); err != nil {
			slog.Error("queue_handler_failed", "subject", msg.Subject, "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", q.ingestSubject, err)
	}
	return q.activate(ctx, sub)
}

// SubscribeCorpusUpdated is a plain broadcast subscription: every API replica
// reloads its index when any worker finishes a document. Registration
// completes before this returns, so callers can rely on no event being
// missed after it.
func (q *Queue) SubscribeCorpusUpdated(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.Subscribe(q.corpusSubject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		documentID := string(msg.Data)
		if err := handler(ctx, documentID); err != nil {
			slog.Error("queue_handler_failed", "subject", msg.Subject, "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", q.corpusSubject, err)
	}
	return q.activate(ctx, sub)
}

// activate flushes the subscription to the server, then drains it in the
// background once ctx ends.
func (q *Queue) activate(ctx context.Context, sub *nats.Subscription) error {
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			slog.Error("nats_drain_failed", "error", err)
			return
		}
		if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
			slog.Error("nats_flush_after_drain_failed", "error", err)
		}
	}()
	return nil
}

func encodeIngestEvent(documentID string, enqueuedAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(ingestEvent{DocumentID: documentID, EnqueuedAt: enqueuedAt})
	if err != nil {
		return nil, fmt.Errorf("encode ingest event: %w", err)
	}
	return payload, nil
}

// decodeIngestEvent accepts both the JSON envelope and a bare document ID,
// so a publisher running the previous wire form still gets processed.
func decodeIngestEvent(data []byte) (documentID string, enqueuedAt time.Time) {
	var event ingestEvent
	if err := json.Unmarshal(data, &event); err == nil && event.DocumentID != "" {
		return event.DocumentID, event.EnqueuedAt
	}
	return strings.TrimSpace(string(data)), time.Time{}
}
