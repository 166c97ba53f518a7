package internal

import (
	"context"
	"fmt"
	"math"
	"time"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
	Close() error
}

const (
	BackendHash   = "hash"
	BackendOpenAI = "openai"
)

// NewEmbedder builds the embedder selected by the embeddings config.
func NewEmbedder(cfg EmbeddingsConfig) (Embedder, error) {
	switch cfg.Backend {
	case BackendHash, "":
		return NewHashEmbedder(cfg.Dimension)
	case BackendOpenAI:
		return NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKeyEnv:   cfg.APIKeyEnv,
			Model:       cfg.Model,
			Dimension:   cfg.Dimension,
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
			Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embeddings backend %q", ErrInvalidArgument, cfg.Backend)
	}
}

func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}

	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(float64(v) / norm)
	}

	return result
}
