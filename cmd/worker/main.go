package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/governed-rag/internal/bootstrap"
	"github.com/kirillkom/governed-rag/internal/config"
	"github.com/kirillkom/governed-rag/internal/observability/logging"
	"github.com/kirillkom/governed-rag/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()

	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string, lag time.Duration) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.ObserveQueueLag("worker", lag)
		workerMetrics.StartDocument()
		start := time.Now()
		chunks, processErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument("worker", time.Since(start), processErr)
		if processErr == nil {
			workerMetrics.ObserveChunksProduced("worker", chunks)
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
	logger.Info("worker_subscribed", "subject", cfg.NATSIngestSubject)

	<-ctx.Done()
}
