package v1

import (
	"context"

	"github.com/4thel00z/notedex/internal"
)

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
	Close() error
}

// SentimentClassifier scores text polarity in [-1, 1].
type SentimentClassifier interface {
	Polarity(text string) float64
}

// ClassifierFunc adapts a plain function to SentimentClassifier.
type ClassifierFunc func(text string) float64

func (f ClassifierFunc) Polarity(text string) float64 { return f(text) }

// Document is a named piece of text to index.
type Document struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Hit is a retrieved chunk annotated with sentiment.
type Hit struct {
	ChunkText         string  `json:"chunk_text"`
	Score             float32 `json:"score"`
	SentimentLabel    string  `json:"sentiment_label"`
	SentimentPolarity float64 `json:"sentiment_polarity"`
	Source            string  `json:"source"`
	DocumentID        string  `json:"document_id"`
	ChunkIndex        int     `json:"chunk_index"`
	Preview           string  `json:"preview"`
}

// Status describes the open index.
type Status struct {
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
	Entries   int    `json:"entries"`
	Documents int    `json:"documents"`
	Location  string `json:"location"`
	Format    string `json:"format"`
}

// Sentiment labels.
const (
	LabelPositive = internal.LabelPositive
	LabelNegative = internal.LabelNegative
	LabelNeutral  = internal.LabelNeutral
)

// Errors callers can match with errors.Is.
var (
	ErrEmptyQuery        = internal.ErrEmptyQuery
	ErrEmptyCorpus       = internal.ErrEmptyCorpus
	ErrDimensionMismatch = internal.ErrDimensionMismatch
	ErrModelMismatch     = internal.ErrModelMismatch
	ErrIndexCorrupt      = internal.ErrIndexCorrupt
	ErrInvalidArgument   = internal.ErrInvalidArgument
)

func toHits(in []internal.AnnotatedHit) []Hit {
	out := make([]Hit, len(in))
	for i, h := range in {
		out[i] = Hit(h)
	}
	return out
}
