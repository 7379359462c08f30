package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"legid-backend/config"
	"legid-backend/llm"
	"legid-backend/repository"
	"legid-backend/storage"
)

func main() {
	prefix := flag.String("prefix", "", "storage prefix holding the corpus documents (default CORPUS_PREFIX)")
	maxRunes := flag.Int("max-chunk", defaultMaxChunkRunes, "maximum chunk size in characters")
	workers := flag.Int("workers", defaultWorkers, "concurrent embedding requests per document")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logCloser, err := config.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := storage.NewStorage(ctx, cfg.StorageConfig())
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	embedder, err := llm.NewGeminiEmbedder(cfg.GeminiAPIKey,
		llm.EmbedderWithModel(cfg.EmbeddingModel),
		llm.EmbedderWithTaskType(llm.TaskRetrievalDocument),
	)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	var tableExists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'legal_chunks')").Scan(&tableExists)
	if err != nil {
		log.Fatalf("Failed to check table existence: %v", err)
	}
	if !tableExists {
		log.Fatal("legal_chunks table does not exist. Please run: go run ./cmd/create-schema")
	}

	if *prefix == "" {
		*prefix = cfg.CorpusPrefix
	}

	chunks := repository.NewLegalChunkRepository(pool)
	in := &ingester{
		store:    store,
		embedder: embedder,
		chunks:   chunks,
		prefix:   *prefix,
		maxRunes: *maxRunes,
		workers:  *workers,
	}

	stats, err := in.Run(ctx)
	total, countErr := chunks.Count(ctx)
	if countErr != nil {
		slog.Warn("failed to count chunks", "error", countErr)
	}
	slog.Info("embedding build finished",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"failed", stats.Failed,
		"total_stored", total,
	)
	if err != nil {
		log.Fatalf("Some documents failed: %v", err)
	}
}
