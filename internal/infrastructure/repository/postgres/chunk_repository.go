package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/governed-rag/internal/core/domain"
)

type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ReplaceDocumentChunks swaps the stored chunks of one document in a single
// transaction so readers never observe a half-processed document.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		tagsJSON, err := json.Marshal(chunk.AccessTags)
		if err != nil {
			return fmt.Errorf("marshal access tags: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO chunks (id, document_id, position, text, section_title, page_number, embedding, access_tags)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
			chunk.ID, chunk.DocumentID, chunk.Position, chunk.Text,
			chunk.SectionTitle, chunk.PageNumber, embeddingJSON, tagsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

// ListAll returns every chunk of every ready document, ordered by chunk ID so
// index builds are reproducible.
func (r *ChunkRepository) ListAll(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.document_id, c.position, c.text, c.section_title, c.page_number, c.embedding, c.access_tags
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.status = $1
ORDER BY c.id
`, string(domain.StatusReady))
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingRaw, tagsRaw []byte

		err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Text,
			&chunk.SectionTitle, &chunk.PageNumber, &embeddingRaw, &tagsRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal(embeddingRaw, &chunk.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		if err := json.Unmarshal(tagsRaw, &chunk.AccessTags); err != nil {
			return nil, fmt.Errorf("unmarshal access tags: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}
