package internal

import (
	"context"
	"fmt"
	"math"
)

// Entry pairs a chunk with its embedding. Entries are never mutated once
// they have been added to an index.
type Entry struct {
	Chunk  Chunk
	Vector []float32
}

type SearchResult struct {
	Entry Entry
	Score float32 // cosine similarity in [-1, 1], higher is better
}

// Snapshot is the persisted state of an index.
type Snapshot struct {
	Dimension int
	Model     string
	Entries   []Entry
}

// DocumentInfo summarizes one indexed document.
type DocumentInfo struct {
	ID     string
	Source string
	Chunks int
}

type VectorIndex interface {
	Add(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
	Snapshot() Snapshot
	Len() int
	Dimension() int
	Model() string
}

func validateEntry(e Entry, dimension int) error {
	if err := CheckDimension(e.Vector, dimension); err != nil {
		return fmt.Errorf("entry %s: %w", e.Chunk.ID, err)
	}
	for i, v := range e.Vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: entry %s has non-finite component at %d", ErrInvalidArgument, e.Chunk.ID, i)
		}
	}
	return nil
}

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity treats a zero vector as orthogonal to everything.
func cosineSimilarity(a []float32, normA float64, b []float32, normB float64) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	s := dot / (normA * normB)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return float32(s)
}
