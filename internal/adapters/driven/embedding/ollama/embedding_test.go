package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// fakeOllama answers /api/embed with vectors whose first element is the
// text length.
func fakeOllama(t *testing.T, dims int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/embed":
			calls.Add(1)
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			resp := embedResponse{}
			for _, text := range req.Input {
				v := make([]float64, dims)
				v[0] = float64(len(text))
				resp.Embeddings = append(resp.Embeddings, v)
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultBatchSize, s.batchSize)
	assert.Nil(t, s.limiter)
}

func TestEmbed(t *testing.T) {
	var calls atomic.Int32
	srv := fakeOllama(t, 4, &calls)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 4})

	v, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0, 0, 0}, v)
}

func TestEmbedBatch_SubBatches(t *testing.T) {
	var calls atomic.Int32
	srv := fakeOllama(t, 2, &calls)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2, BatchSize: 2, RequestsPerSecond: 1000})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := s.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := fakeOllama(t, 3, &calls)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 4})

	_, err := s.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)
	assert.Contains(t, err.Error(), "model not found")
}

func TestPing(t *testing.T) {
	var calls atomic.Int32
	srv := fakeOllama(t, 2, &calls)
	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))

	down := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, down.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}
