package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/governed-rag/internal/adapters/http"
	"github.com/kirillkom/governed-rag/internal/bootstrap"
	"github.com/kirillkom/governed-rag/internal/config"
	"github.com/kirillkom/governed-rag/internal/observability/logging"
	"github.com/kirillkom/governed-rag/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")

	// Workers broadcast on the corpus subject after each processed document.
	// The subscription is registered before the initial load so a broadcast
	// racing the load is delivered, not dropped. An empty corpus still
	// installs a generation, so readiness never depends on content.
	err = bootstrap.SyncCorpus(ctx, app.Queue, app.RefreshUC, func() {
		serverMetrics.SetIndexState(app.Engine.Generation(), app.Engine.Size())
	})
	if err != nil {
		log.Fatalf("corpus sync error: %v", err)
	}

	router := httpadapter.NewRouter(cfg, serverMetrics, app.IngestUC, app.QueryUC, app.Repo).
		WithReadiness(app.Engine.Ready).
		Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
