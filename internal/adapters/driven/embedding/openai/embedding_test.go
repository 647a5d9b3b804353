package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeEmbedding(w http.ResponseWriter, vec []float64) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"model":  "text-embedding-3-small",
		"data": []map[string]any{
			{"object": "embedding", "index": 0, "embedding": vec},
		},
		"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
	})
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, 1536, s.Dimensions())
	assert.Equal(t, "openai:text-embedding-3-small", s.Name())
	assert.False(t, s.sendDims)
}

func TestNewEmbeddingService_UnknownModelNeedsDimensions(t *testing.T) {
	_, err := NewEmbeddingService(Config{APIKey: "k", Model: "custom-embedder"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, err := NewEmbeddingService(Config{APIKey: "k", Model: "custom-embedder", Dimensions: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, s.Dimensions())
	assert.False(t, s.sendDims, "dimensions are only sent to text-embedding-3 models")
}

func TestEmbed_SendsModelAndInput(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeEmbedding(w, []float64{0.5, -0.25, 1})
	})

	s, err := NewEmbeddingService(Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL,
		Model:      "text-embedding-3-small",
		Dimensions: 3,
	})
	require.NoError(t, err)

	vec, err := s.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
	assert.Equal(t, "text-embedding-3-small", body["model"])
	assert.Equal(t, "hello world", body["input"])
	assert.EqualValues(t, 3, body["dimensions"])
}

func TestEmbed_EmptyTextSkipsRequest(t *testing.T) {
	called := false
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	s, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: srv.URL, Dimensions: 4})
	require.NoError(t, err)

	vec, err := s.Embed(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 4), vec)
	assert.False(t, called)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	s, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestEmbed_TooManyRequestsStartsBackoff(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"slow down"}}`, http.StatusTooManyRequests)
	})

	s, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: srv.URL, RequestsPerSecond: 100})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.False(t, s.limiter.Allow())
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEmbedding(w, []float64{1, 2})
	})

	s, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: srv.URL, Dimensions: 3})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrInvalidDimensions)
}
