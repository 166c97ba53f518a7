package internal

import (
	"context"
	"fmt"
	"strings"
)

const (
	DefaultTopK         = 3
	DefaultSeparator    = "\n\n"
	DefaultPreviewChars = 200
)

// AnnotatedHit is one retrieved chunk with its similarity score and
// sentiment annotation.
type AnnotatedHit struct {
	ChunkText         string  `json:"chunk_text"`
	Score             float32 `json:"score"`
	SentimentLabel    string  `json:"sentiment_label"`
	SentimentPolarity float64 `json:"sentiment_polarity"`
	Source            string  `json:"source"`
	DocumentID        string  `json:"document_id"`
	ChunkIndex        int     `json:"chunk_index"`
	Preview           string  `json:"preview"`
}

type QueryEngine struct {
	embedder     Embedder
	classifier   SentimentClassifier
	separator    string
	previewChars int
}

type QueryOption func(*QueryEngine)

func WithSeparator(sep string) QueryOption {
	return func(q *QueryEngine) { q.separator = sep }
}

func WithPreviewChars(n int) QueryOption {
	return func(q *QueryEngine) {
		if n > 0 {
			q.previewChars = n
		}
	}
}

func NewQueryEngine(embedder Embedder, classifier SentimentClassifier, opts ...QueryOption) *QueryEngine {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	q := &QueryEngine{
		embedder:     embedder,
		classifier:   classifier,
		separator:    DefaultSeparator,
		previewChars: DefaultPreviewChars,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Query returns up to k chunks most similar to text, best first.
func (q *QueryEngine) Query(ctx context.Context, idx VectorIndex, text string, k int) ([]AnnotatedHit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}

	vec, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := CheckDimension(vec, idx.Dimension()); err != nil {
		return nil, err
	}

	results, err := idx.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]AnnotatedHit, len(results))
	for i, r := range results {
		hits[i] = q.annotate(r)
	}
	return hits, nil
}

// CombinedQuery searches with primary and auxiliary text joined by the
// separator. A blank auxiliary makes it identical to Query(primary).
func (q *QueryEngine) CombinedQuery(ctx context.Context, idx VectorIndex, primary, auxiliary string, k int) ([]AnnotatedHit, error) {
	if strings.TrimSpace(primary) == "" {
		return nil, ErrEmptyQuery
	}
	if strings.TrimSpace(auxiliary) == "" {
		return q.Query(ctx, idx, primary, k)
	}
	return q.Query(ctx, idx, primary+q.separator+auxiliary, k)
}

func (q *QueryEngine) annotate(r SearchResult) AnnotatedHit {
	c := r.Entry.Chunk
	polarity := ClampPolarity(q.classifier.Polarity(c.Text))
	return AnnotatedHit{
		ChunkText:         c.Text,
		Score:             r.Score,
		SentimentLabel:    SentimentLabel(polarity),
		SentimentPolarity: polarity,
		Source:            c.Source,
		DocumentID:        c.DocumentID,
		ChunkIndex:        c.Index,
		Preview:           Preview(c.Text, q.previewChars),
	}
}

// Preview truncates text to n characters and marks the cut with "...".
func Preview(text string, n int) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
