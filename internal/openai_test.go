package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingsServer answers /v1/embeddings with one vector per input whose
// first component encodes the input's length, returned in reverse order.
func fakeEmbeddingsServer(t *testing.T, dim int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dim)
			vec[0] = float32(len(req.Input[i]))
			vec[1] = 1
			data = append(data, item{Object: "embedding", Embedding: vec, Index: i})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func newTestOpenAIEmbedder(t *testing.T, srv *httptest.Server, dim, batch int) *OpenAIEmbedder {
	t.Helper()
	t.Setenv("NOTEDEX_TEST_KEY", "sk-test")

	e, err := NewOpenAIEmbedder(OpenAIConfig{
		BaseURL:     srv.URL + "/v1",
		APIKeyEnv:   "NOTEDEX_TEST_KEY",
		Dimension:   dim,
		BatchSize:   batch,
		Concurrency: 2,
	})
	require.NoError(t, err)
	return e
}

func TestOpenAIEmbedderMissingKey(t *testing.T) {
	t.Setenv("NOTEDEX_MISSING_KEY", "")
	_, err := NewOpenAIEmbedder(OpenAIConfig{APIKeyEnv: "NOTEDEX_MISSING_KEY", Dimension: 8})
	assert.Error(t, err)
}

func TestOpenAIEmbedderRequiresDimension(t *testing.T) {
	t.Setenv("NOTEDEX_TEST_KEY", "sk-test")
	_, err := NewOpenAIEmbedder(OpenAIConfig{APIKeyEnv: "NOTEDEX_TEST_KEY"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOpenAIEmbedderBatchPreservesOrder(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddingsServer(t, 4, &calls)
	defer srv.Close()

	e := newTestOpenAIEmbedder(t, srv, 4, 2)
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	vecs, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	assert.Equal(t, int32(3), calls.Load())

	for i := 1; i < len(vecs); i++ {
		assert.Greater(t, vecs[i][0], vecs[i-1][0], "vector %d out of order", i)
	}
	assert.Equal(t, "openai-"+DefaultOpenAIModel, e.Model())
}

func TestOpenAIEmbedderDimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddingsServer(t, 3, &calls)
	defer srv.Close()

	e := newTestOpenAIEmbedder(t, srv, 8, 4)
	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewEmbedderBackends(t *testing.T) {
	emb, err := NewEmbedder(EmbeddingsConfig{Backend: BackendHash, Dimension: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, emb.Dimension())

	_, err = NewEmbedder(EmbeddingsConfig{Backend: "word2vec"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
