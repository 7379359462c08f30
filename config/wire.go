package config

import (
	"context"
	"fmt"
	"log/slog"

	"legid-backend/llm"
	"legid-backend/observability"
	"legid-backend/prompts"
	"legid-backend/repository"
	"legid-backend/retriever"
	"legid-backend/storage"
)

// NewCompleter builds the configured LLM backend with retry, rate limiting
// and call metrics. Each retry attempt waits for the limiter and is counted.
// The returned func releases the client.
func NewCompleter(ctx context.Context, c Config, m *observability.Metrics) (llm.Completer, func(), error) {
	var base llm.Completer
	cleanup := func() {}

	switch c.LLMProvider {
	case ProviderGemini:
		g, err := llm.NewGeminiClient(ctx, c.GeminiAPIKey, c.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		base = g
		cleanup = func() {
			if err := g.Close(); err != nil {
				slog.Warn("failed to close gemini client", "error", err)
			}
		}
	case ProviderOpenAI:
		o, err := llm.NewOpenAIClient(c.OpenAIAPIKey, c.OpenAIBaseURL, c.OpenAIModel)
		if err != nil {
			return nil, nil, err
		}
		base = o
	default:
		return nil, nil, fmt.Errorf("%w: %s", llm.ErrUnknownBackend, c.LLMProvider)
	}

	slog.Info("llm backend ready", "provider", c.LLMProvider, "rps", c.LLMRate, "max_retries", c.LLMMaxRetries)
	return llm.Wrap(base,
		llm.WithRetry(c.LLMMaxRetries, c.LLMBackoff),
		llm.WithRateLimit(c.LLMRate, c.LLMBurst),
		m.LLMMiddleware(),
	), cleanup, nil
}

// NewRetriever builds the configured search backend, fronted by the result
// cache when RETRIEVAL_CACHE_SIZE > 0. It returns a nil Retriever for
// RETRIEVER=none.
func NewRetriever(ctx context.Context, c Config) (retriever.Retriever, func(), error) {
	var r retriever.Retriever
	cleanup := func() {}

	switch c.Retriever {
	case RetrieverNone, "":
		slog.Warn("no retriever configured, answers will not cite sources")
		return nil, cleanup, nil
	case RetrieverPGVector:
		embedder, err := llm.NewGeminiEmbedder(c.GeminiAPIKey,
			llm.EmbedderWithModel(c.EmbeddingModel),
			llm.EmbedderWithTaskType(llm.TaskRetrievalQuery),
		)
		if err != nil {
			return nil, nil, err
		}
		pool, err := repository.NewPool(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		r = retriever.NewPGVector(embedder, repository.NewLegalChunkRepository(pool), c.RetrievalJurisdiction)
		cleanup = pool.Close
	case RetrieverWeaviate:
		w, err := retriever.NewWeaviate(c.WeaviateURL, c.WeaviateClass)
		if err != nil {
			return nil, nil, err
		}
		r = w
	default:
		return nil, nil, fmt.Errorf("%w: %s", retriever.ErrUnknownBackend, c.Retriever)
	}

	if c.CacheSize > 0 {
		r = retriever.NewCached(r, c.CacheSize, c.CacheTTL)
	}
	slog.Info("retriever ready", "backend", c.Retriever, "cache_size", c.CacheSize)
	return r, cleanup, nil
}

// NewPrompts loads the template library, with storage overrides when
// PROMPT_OVERRIDES is set
func NewPrompts(ctx context.Context, c Config) (*prompts.Library, error) {
	if !c.PromptOverrides {
		return prompts.Default(), nil
	}
	store, err := storage.NewStorage(ctx, c.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt storage: %w", err)
	}
	return prompts.Load(ctx, store, c.PromptPrefix)
}
