package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordTrace persists one row per ranked result. Traces carry identifiers
// and scores only, never chunk text.
func (r *AuditRepository) RecordTrace(ctx context.Context, trace domain.RetrievalTrace) error {
	if len(trace.Entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, entry := range trace.Entries {
		methodsJSON, err := json.Marshal(entry.Methods)
		if err != nil {
			return fmt.Errorf("marshal methods: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO retrieval_traces (request_id, rank, chunk_id, document_id, section_title, score, methods, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (request_id, rank) DO NOTHING
`,
			trace.RequestID, entry.Rank, entry.ChunkID, entry.DocumentID,
			entry.SectionTitle, entry.Score, methodsJSON, now,
		)
		if err != nil {
			return fmt.Errorf("insert trace entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trace tx: %w", err)
	}
	return nil
}

