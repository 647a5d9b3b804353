package ollama

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

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, 768, s.Dimensions())
	assert.Equal(t, "ollama:nomic-embed-text", s.Name())

	s = NewEmbeddingService(Config{Model: "mxbai-embed-large"})
	assert.Equal(t, 1024, s.Dimensions())
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, "some text", req.Prompt)

		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 0, 0.5}})
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL + "/", Model: "all-minilm", Dimensions: 3})
	vec, err := s.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0.5}, vec)
}

func TestEmbed_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestEmbed_WrongDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1}})
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})
	_, err := s.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrInvalidDimensions)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: srv.URL}).Ping(context.Background()))
	srv.Close()
	assert.Error(t, NewEmbeddingService(Config{BaseURL: srv.URL}).Ping(context.Background()))
}
