package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/governed-rag/internal/config"
	"github.com/kirillkom/governed-rag/internal/core/ports"
	"github.com/kirillkom/governed-rag/internal/core/usecase"
	"github.com/kirillkom/governed-rag/internal/infrastructure/chunking"
	"github.com/kirillkom/governed-rag/internal/infrastructure/extractor"
	"github.com/kirillkom/governed-rag/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/governed-rag/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/governed-rag/internal/infrastructure/extractor/xlsxtext"
	"github.com/kirillkom/governed-rag/internal/infrastructure/index"
	"github.com/kirillkom/governed-rag/internal/infrastructure/index/sparse"
	"github.com/kirillkom/governed-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/governed-rag/internal/infrastructure/queue/nats"
	"github.com/kirillkom/governed-rag/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/governed-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/governed-rag/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Engine    *index.Engine
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.QueryService
	RefreshUC ports.CorpusRefresher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.PipelinePolicies())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSCorpusSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	textExtractor := extractor.NewComposite(plaintext.New(storage))
	textExtractor.Register("pdf", pdftext.New(storage))
	textExtractor.Register("xlsx", xlsxtext.New(storage))

	engine := index.NewEngine(index.Options{
		BM25: sparse.Params{K1: cfg.BM25K1, B: cfg.BM25B},
	}, logger)

	retrieveUC := usecase.NewRetrieveUseCase(engine, auditRepo, usecase.RetrievalParams{
		TopK:              cfg.RetrievalTopK,
		RRFConstant:       cfg.RetrievalRRFK,
		BreadthMultiplier: cfg.RetrievalBreadth,
	}, logger)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, textExtractor, chunker, embedder, chunkRepo, queue)
	queryUC := usecase.NewQueryUseCase(embedder, retrieveUC, generator)
	refreshUC := usecase.NewRefreshUseCase(chunkRepo, engine, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		Engine:    engine,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,
		RefreshUC: refreshUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
