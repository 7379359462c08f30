package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legid-backend/config"
	"legid-backend/handlers"
	"legid-backend/observability"
	"legid-backend/service"
	"legid-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser, err := config.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Initialize backends
	completer, closeLLM, err := config.NewCompleter(ctx, cfg, metrics)
	if err != nil {
		log.Fatalf("Failed to initialize LLM backend: %v", err)
	}
	defer closeLLM()

	searcher, closeRetriever, err := config.NewRetriever(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize retriever: %v", err)
	}
	defer closeRetriever()

	library, err := config.NewPrompts(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load pipeline policy: %v", err)
	}

	// Initialize pipeline
	opts := []service.PipelineOption{
		service.PipelineWithLLM(completer),
		service.PipelineWithPrompts(library),
		service.PipelineWithPolicy(policy),
		service.PipelineWithMetrics(metrics),
	}
	if searcher != nil {
		opts = append(opts, service.PipelineWithRetriever(searcher))
	}
	pipeline := service.NewPipeline(opts...)

	var corpus *handlers.CorpusHandler
	if cfg.CorpusUploads {
		store, err := storage.NewStorage(ctx, cfg.StorageConfig())
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		corpus = handlers.NewCorpusHandler(store, cfg.CorpusPrefix, cfg.CorpusMaxFileSize)
		slog.Info("corpus uploads enabled", "prefix", cfg.CorpusPrefix)
	}

	// Setup Gin router
	gin.SetMode(cfg.GinMode)
	router := handlers.NewRouter(handlers.NewAnswerHandler(pipeline, cfg.RequestTimeout), corpus, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "escalation", pipeline.Policy().Escalation)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
