package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiEmbedder_NormalizesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskRetrievalDocument, req.TaskType)
		assert.Equal(t, DefaultEmbeddingDimensions, req.OutputDimensionality)
		_, _ = w.Write([]byte(`{"embedding":{"values":[3,4]}}`))
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder("test-key",
		EmbedderWithEndpoint(srv.URL),
		EmbedderWithTaskType(TaskRetrievalDocument))
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "tenant rights")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-9)
	assert.InDelta(t, 0.8, vec[1], 1e-9)
	assert.InDelta(t, 1.0, math.Hypot(vec[0], vec[1]), 1e-9)
}

func TestGeminiEmbedder_NoRetryOnBadRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder("k", EmbedderWithEndpoint(srv.URL), EmbedderWithBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGeminiEmbedder_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":{"values":[1,0]}}`))
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder("k", EmbedderWithEndpoint(srv.URL), EmbedderWithBackoff(time.Millisecond))
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, vec)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestNewGeminiEmbedder_RequiresKey(t *testing.T) {
	_, err := NewGeminiEmbedder("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
