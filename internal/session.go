package internal

import (
	"context"
	"fmt"
	"log/slog"
)

// Session is the single live index of a process together with everything
// needed to query and grow it. Create it once and share it.
type Session struct {
	Index    *FlatIndex
	Store    IndexStore
	Manager  *IndexManager
	Engine   *QueryEngine
	Size     int
	Overlap  int
	logger   *slog.Logger
	embedder Embedder
}

type SessionConfig struct {
	Store      IndexStore
	Embedder   Embedder
	Classifier SentimentClassifier
	Logger     *slog.Logger
	// Size and Overlap default independently: a zero Size becomes
	// DefaultChunkSize, and a zero Overlap next to it DefaultChunkOverlap.
	Size      int
	Overlap   int
	BatchSize int
	Separator string
	Preview   int
	// Fallback seeds a fresh index when the store is empty. Nil means
	// BootstrapDocuments.
	Fallback []Document
}

// OpenSession loads the persisted index, bootstrapping one when none exists.
func OpenSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Store == nil || cfg.Embedder == nil {
		return nil, fmt.Errorf("%w: session needs a store and an embedder", ErrInvalidArgument)
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if cfg.Size == 0 {
		cfg.Size = DefaultChunkSize
		if cfg.Overlap == 0 {
			cfg.Overlap = DefaultChunkOverlap
		}
	}
	if cfg.Fallback == nil {
		cfg.Fallback = BootstrapDocuments()
	}

	mgr := NewIndexManager(cfg.Embedder, WithManagerLogger(cfg.Logger), WithBatchSize(cfg.BatchSize))

	idx, err := mgr.GetOrCreate(ctx, cfg.Store, cfg.Size, cfg.Overlap, cfg.Fallback)
	if err != nil {
		return nil, err
	}

	opts := []QueryOption{WithPreviewChars(cfg.Preview)}
	if cfg.Separator != "" {
		opts = append(opts, WithSeparator(cfg.Separator))
	}

	return &Session{
		Index:    idx,
		Store:    cfg.Store,
		Manager:  mgr,
		Engine:   NewQueryEngine(cfg.Embedder, cfg.Classifier, opts...),
		Size:     cfg.Size,
		Overlap:  cfg.Overlap,
		logger:   cfg.Logger,
		embedder: cfg.Embedder,
	}, nil
}

func (s *Session) Query(ctx context.Context, text string, k int) ([]AnnotatedHit, error) {
	return s.Engine.Query(ctx, s.Index, text, k)
}

func (s *Session) CombinedQuery(ctx context.Context, primary, auxiliary string, k int) ([]AnnotatedHit, error) {
	return s.Engine.CombinedQuery(ctx, s.Index, primary, auxiliary, k)
}

func (s *Session) Append(ctx context.Context, doc Document) (int, error) {
	return s.Manager.Append(ctx, s.Index, s.Store, doc, s.Size, s.Overlap)
}

// Close releases the embedder.
func (s *Session) Close() error {
	return s.embedder.Close()
}

type IndexStatus struct {
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
	Entries   int    `json:"entries"`
	Documents int    `json:"documents"`
	Location  string `json:"location"`
	Format    string `json:"format"`
}

func (s *Session) Status() IndexStatus {
	return IndexStatus{
		Dimension: s.Index.Dimension(),
		Model:     s.Index.Model(),
		Entries:   s.Index.Len(),
		Documents: len(s.Index.Documents()),
		Location:  s.Store.Location(),
		Format:    s.Store.Format(),
	}
}
