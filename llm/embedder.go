package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	embeddingEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent"

	DefaultEmbeddingModel      = "gemini-embedding-001"
	DefaultEmbeddingDimensions = 768

	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Embedder turns text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// GeminiEmbedder calls the Gemini embedContent endpoint and returns unit
// length vectors so cosine distance in pgvector behaves.
type GeminiEmbedder struct {
	apiKey     string
	model      string
	taskType   string
	dimensions int
	endpoint   string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// EmbedderOption configures a GeminiEmbedder
type EmbedderOption func(*GeminiEmbedder)

// EmbedderWithModel sets the embedding model name
func EmbedderWithModel(model string) EmbedderOption {
	return func(e *GeminiEmbedder) {
		if model != "" {
			e.model = model
		}
	}
}

// EmbedderWithTaskType sets RETRIEVAL_QUERY or RETRIEVAL_DOCUMENT
func EmbedderWithTaskType(task string) EmbedderOption {
	return func(e *GeminiEmbedder) {
		e.taskType = task
	}
}

// EmbedderWithEndpoint overrides the endpoint URL (tests)
func EmbedderWithEndpoint(url string) EmbedderOption {
	return func(e *GeminiEmbedder) {
		e.endpoint = url
	}
}

// EmbedderWithBackoff overrides the retry backoff
func EmbedderWithBackoff(d time.Duration) EmbedderOption {
	return func(e *GeminiEmbedder) {
		e.backoff = d
	}
}

// NewGeminiEmbedder creates an embedder for query text by default
func NewGeminiEmbedder(apiKey string, opts ...EmbedderOption) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingAPIKey)
	}
	e := &GeminiEmbedder{
		apiKey:     apiKey,
		model:      DefaultEmbeddingModel,
		taskType:   TaskRetrievalQuery,
		dimensions: DefaultEmbeddingDimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.endpoint == "" {
		e.endpoint = fmt.Sprintf(embeddingEndpoint, e.model)
	}
	return e, nil
}

type embedRequest struct {
	Model                string       `json:"model"`
	Content              embedContent `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed implements Embedder
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{
		Model:                "models/" + e.model,
		Content:              embedContent{Parts: []embedPart{{Text: text}}},
		TaskType:             e.taskType,
		OutputDimensionality: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := e.backoff
	var last error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		vec, err := e.embedOnce(ctx, body)
		if err == nil {
			return normalize(vec), nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return nil, err
		}
		last = err
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.maxRetries, last)
}

func (e *GeminiEmbedder) embedOnce(ctx context.Context, body []byte) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewPermanentError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := fmt.Errorf("embedding API error: %d - %s", resp.StatusCode, bytes.TrimSpace(msg))
		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, NewPermanentError(apiErr)
		}
		return nil, apiErr
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return out.Embedding.Values, nil
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
