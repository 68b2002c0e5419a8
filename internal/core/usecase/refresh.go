package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/governed-rag/internal/core/ports"
)

// RefreshUseCase rebuilds the in-memory indexes from the persisted chunk
// corpus. A rebuild that fails leaves the previous generation serving.
type RefreshUseCase struct {
	chunks ports.ChunkRepository
	engine ports.RetrievalEngine
	logger *slog.Logger
}

func NewRefreshUseCase(
	chunks ports.ChunkRepository,
	engine ports.RetrievalEngine,
	logger *slog.Logger,
) *RefreshUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshUseCase{
		chunks: chunks,
		engine: engine,
		logger: logger,
	}
}

func (uc *RefreshUseCase) Reload(ctx context.Context) error {
	corpus, err := uc.chunks.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list chunk corpus: %w", err)
	}

	if uc.engine.Ready() {
		err = uc.engine.Refresh(corpus)
	} else {
		err = uc.engine.Load(corpus)
	}
	if err != nil {
		return fmt.Errorf("install index generation: %w", err)
	}

	uc.logger.Info("corpus_reloaded", "chunks", len(corpus))
	return nil
}
