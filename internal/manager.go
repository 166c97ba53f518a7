package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	DefaultBatchSize = 64
	documentExt      = ".txt"
)

// IndexManager builds indexes from documents and applies incremental
// appends. Appends through one manager are serialized; searches on the
// index run concurrently with them.
type IndexManager struct {
	mu        sync.Mutex
	embedder  Embedder
	logger    *slog.Logger
	batchSize int
}

type ManagerOption func(*IndexManager)

func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *IndexManager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithBatchSize(n int) ManagerOption {
	return func(m *IndexManager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

func NewIndexManager(embedder Embedder, opts ...ManagerOption) *IndexManager {
	m := &IndexManager{
		embedder:  embedder,
		logger:    discardLogger(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *IndexManager) Embedder() Embedder { return m.embedder }

// Build chunks and embeds docs into a fresh in-memory index. It never
// touches disk.
func (m *IndexManager) Build(ctx context.Context, docs []Document, size, overlap int) (*FlatIndex, error) {
	chunker, err := NewChunker(size, overlap)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunker.Chunk(doc)...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %d documents produced no chunks", ErrEmptyCorpus, len(docs))
	}

	entries, err := m.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	idx, err := NewFlatIndex(m.embedder.Dimension(), m.embedder.Model())
	if err != nil {
		return nil, err
	}
	if err := idx.Add(ctx, entries); err != nil {
		return nil, fmt.Errorf("add entries: %w", err)
	}

	m.logger.Info("index built",
		"documents", len(docs),
		"chunks", len(chunks),
		"dimension", idx.Dimension(),
		"model", idx.Model())
	return idx, nil
}

// LoadDirectory reads every *.txt file directly inside dir, sorted by
// name. Files matched by the directory's ignore file are dropped and
// unreadable files are logged and skipped.
func (m *IndexManager) LoadDirectory(ctx context.Context, dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	ignore, err := NewIgnoreMatcher(dir)
	if err != nil {
		return nil, fmt.Errorf("read ignore file: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list data directory: %w", err)
	}

	var docs []Document
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, e.Name())
		if !IsDocumentFile(path) || ignore.Match(path) {
			continue
		}

		fi, err := os.Stat(path)
		if err != nil {
			m.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		doc, err := LoadDocument(path)
		if err != nil {
			m.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	m.logger.Debug("loaded data directory", "dir", dir, "documents", len(docs))
	return docs, nil
}

func (m *IndexManager) IngestDirectory(ctx context.Context, dir string, size, overlap int) (*FlatIndex, error) {
	docs, err := m.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	return m.Build(ctx, docs, size, overlap)
}

// Append adds one document to idx and persists the result. The new state
// is written to store before it becomes visible in memory, so a failed
// save leaves idx unchanged and the call can be retried. It returns the
// number of chunks added.
func (m *IndexManager) Append(ctx context.Context, idx *FlatIndex, store IndexStore, doc Document, size, overlap int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx.Model() != m.embedder.Model() {
		return 0, fmt.Errorf("%w: index uses %q, embedder is %q", ErrModelMismatch, idx.Model(), m.embedder.Model())
	}
	if idx.Dimension() != m.embedder.Dimension() {
		return 0, &DimensionError{Expected: idx.Dimension(), Got: m.embedder.Dimension()}
	}

	chunker, err := NewChunker(size, overlap)
	if err != nil {
		return 0, err
	}

	chunks := chunker.Chunk(doc)
	if len(chunks) == 0 {
		return 0, nil
	}

	entries, err := m.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := validateEntry(e, idx.Dimension()); err != nil {
			return 0, err
		}
	}

	snap := idx.Snapshot()
	snap.Entries = append(snap.Entries, entries...)
	if err := store.Save(ctx, snap); err != nil {
		return 0, fmt.Errorf("persist index: %w", err)
	}

	// The entries are on disk now; publish them even if ctx was canceled.
	if err := idx.Add(context.WithoutCancel(ctx), entries); err != nil {
		return 0, fmt.Errorf("add entries: %w", err)
	}

	m.logger.Info("document appended",
		"source", doc.Source,
		"document", doc.ID,
		"chunks", len(entries),
		"total", idx.Len(),
		"store", store.Location())
	return len(entries), nil
}

// GetOrCreate loads the index from store. When nothing is persisted yet it
// builds one from fallback and saves it. Any other load failure is
// returned as is.
func (m *IndexManager) GetOrCreate(ctx context.Context, store IndexStore, size, overlap int, fallback []Document) (*FlatIndex, error) {
	idx, err := LoadFlatIndex(ctx, store)
	if err == nil {
		if idx.Model() != m.embedder.Model() || idx.Dimension() != m.embedder.Dimension() {
			return nil, fmt.Errorf("%w: index at %s was built with %q (dim %d), embedder is %q (dim %d); re-run ingest",
				ErrModelMismatch, store.Location(), idx.Model(), idx.Dimension(), m.embedder.Model(), m.embedder.Dimension())
		}
		m.logger.Debug("index loaded", "store", store.Location(), "entries", idx.Len())
		return idx, nil
	}
	if !errors.Is(err, ErrIndexNotFound) {
		return nil, err
	}

	m.logger.Info("no index found, bootstrapping", "store", store.Location(), "documents", len(fallback))

	idx, err = m.Build(ctx, fallback, size, overlap)
	if err != nil {
		return nil, fmt.Errorf("bootstrap index: %w", err)
	}
	if err := idx.Save(ctx, store); err != nil {
		return nil, err
	}
	return idx, nil
}

func (m *IndexManager) embedChunks(ctx context.Context, chunks []Chunk) ([]Entry, error) {
	entries := make([]Entry, 0, len(chunks))
	for start := 0; start < len(chunks); start += m.batchSize {
		end := min(start+m.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i, ch := range chunks[start:end] {
			texts[i] = ch.Text
		}

		vecs, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vecs), len(texts))
		}

		for i, vec := range vecs {
			if err := CheckDimension(vec, m.embedder.Dimension()); err != nil {
				return nil, fmt.Errorf("embed chunk %s: %w", chunks[start+i].ID, err)
			}
			entries = append(entries, Entry{Chunk: chunks[start+i], Vector: vec})
		}
	}
	return entries, nil
}

// IsDocumentFile reports whether path names an ingestible notes file.
func IsDocumentFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), documentExt)
}

// BootstrapDocuments is the built-in meeting history a fresh index starts
// from when no index has been persisted yet.
func BootstrapDocuments() []Document {
	history := []string{
		"Team conflict resolved by moving meeting to Friday",
		"Urgent client call prioritized over internal review",
		"Buffer added after stressful sprint planning",
	}
	docs := make([]Document, len(history))
	for i, text := range history {
		docs[i] = NewDocument(fmt.Sprintf("bootstrap/history-%d.txt", i+1), text)
	}
	return docs
}
