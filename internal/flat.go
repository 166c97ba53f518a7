package internal

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

var _ VectorIndex = (*FlatIndex)(nil)

// FlatIndex is an exact nearest-neighbour index that scans every entry.
// The corpus sizes this tool targets make a brute-force cosine scan both
// fast enough and exactly reproducible.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	model     string
	entries   []Entry
	norms     []float64
	docs      map[string]int
}

func NewFlatIndex(dimension int, model string) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidArgument, dimension)
	}
	return &FlatIndex{
		dimension: dimension,
		model:     model,
		docs:      make(map[string]int),
	}, nil
}

// NewFlatIndexFromSnapshot rebuilds an index from persisted state.
func NewFlatIndexFromSnapshot(snap Snapshot) (*FlatIndex, error) {
	idx, err := NewFlatIndex(snap.Dimension, snap.Model)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(context.Background(), snap.Entries); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add appends entries in order. Every entry is validated before any is
// stored, so a failed call leaves the index untouched.
func (f *FlatIndex) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, e := range entries {
		if err := validateEntry(e, f.dimension); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range entries {
		e.Vector = slices.Clone(e.Vector)
		f.entries = append(f.entries, e)
		f.norms = append(f.norms, norm(e.Vector))
		f.docs[e.Chunk.DocumentID]++
	}
	return nil
}

func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if err := CheckDimension(query, f.dimension); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	qn := norm(query)
	results := make([]SearchResult, len(f.entries))
	for i, e := range f.entries {
		results[i] = SearchResult{
			Entry: e,
			Score: cosineSimilarity(query, qn, e.Vector, f.norms[i]),
		}
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results[:min(k, len(results))], nil
}

// Snapshot returns a copy of the index state safe to hand to a store.
func (f *FlatIndex) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return Snapshot{
		Dimension: f.dimension,
		Model:     f.model,
		Entries:   slices.Clone(f.entries),
	}
}

func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

func (f *FlatIndex) Dimension() int { return f.dimension }
func (f *FlatIndex) Model() string  { return f.model }

func (f *FlatIndex) ContainsDocument(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.docs[id]
	return ok
}

// Documents lists indexed documents in first-insertion order.
func (f *FlatIndex) Documents() []DocumentInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()

	seen := make(map[string]bool, len(f.docs))
	var infos []DocumentInfo
	for _, e := range f.entries {
		id := e.Chunk.DocumentID
		if seen[id] {
			continue
		}
		seen[id] = true
		infos = append(infos, DocumentInfo{ID: id, Source: e.Chunk.Source, Chunks: f.docs[id]})
	}
	return infos
}

// DocumentChunks returns a document's chunks ordered by chunk index.
func (f *FlatIndex) DocumentChunks(id string) []Chunk {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var chunks []Chunk
	for _, e := range f.entries {
		if e.Chunk.DocumentID == id {
			chunks = append(chunks, e.Chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks
}

// LatestDocument returns the most recently indexed document for source.
func (f *FlatIndex) LatestDocument(source string) (DocumentInfo, bool) {
	docs := f.Documents()
	for i := len(docs) - 1; i >= 0; i-- {
		if docs[i].Source == source {
			return docs[i], true
		}
	}
	return DocumentInfo{}, false
}

func (f *FlatIndex) Save(ctx context.Context, store IndexStore) error {
	if err := store.Save(ctx, f.Snapshot()); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

func LoadFlatIndex(ctx context.Context, store IndexStore) (*FlatIndex, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	idx, err := NewFlatIndexFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	return idx, nil
}
