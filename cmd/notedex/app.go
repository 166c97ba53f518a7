package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/4thel00z/notedex/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app carries everything commands share. It is configured from the
// persistent flags before a command runs; the embedder and the session are
// created on first use.
type app struct {
	resolver *internal.ScopeResolver

	mu        sync.Mutex
	scope     internal.Scope
	cfg       *internal.Config
	logger    *slog.Logger
	indexPath string
	format    string
	embedder  internal.Embedder
	session   *internal.Session
}

func newApp() *app {
	return &app{
		resolver: internal.NewScopeResolver(),
		cfg:      internal.DefaultConfig(),
		logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func (a *app) configure(cmd *cobra.Command) error {
	scopeHint, _ := cmd.Flags().GetString("scope")
	scope := a.resolver.Resolve(scopeHint)

	// A project .env overrides nothing already set in the environment.
	_ = godotenv.Load(scope.EnvPath())

	cfg, err := internal.LoadConfig(scope)
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	logger, err := internal.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	// An explicit index path picks its own format from the extension.
	indexPath := cfg.ResolveIndexPath(scope)
	format := cfg.Store.Format
	if p, _ := cmd.Flags().GetString("index-path"); p != "" && p != indexPath {
		indexPath = p
		format = ""
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.scope = scope
	a.cfg = cfg
	a.logger = logger
	a.indexPath = indexPath
	a.format = format
	return nil
}

func (a *app) Config() *internal.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

func (a *app) Scope() internal.Scope {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scope
}

func (a *app) Logger() *slog.Logger {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logger
}

func (a *app) Embedder() (internal.Embedder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.embedderLocked()
}

func (a *app) embedderLocked() (internal.Embedder, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	emb, err := internal.NewEmbedder(a.cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	a.embedder = emb
	return emb, nil
}

// Session opens the index once and hands the same session to every caller.
// A failed open is not cached.
func (a *app) Session(ctx context.Context) (*internal.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return a.session, nil
	}

	emb, err := a.embedderLocked()
	if err != nil {
		return nil, err
	}

	store, err := internal.OpenStore(a.indexPath, a.format)
	if err != nil {
		return nil, err
	}

	classifier, err := internal.NewClassifier(a.cfg.Sentiment.Classifier, a.scope.Resolve(a.cfg.Sentiment.Lexicon))
	if err != nil {
		return nil, err
	}

	s, err := internal.OpenSession(ctx, internal.SessionConfig{
		Store:      store,
		Embedder:   emb,
		Classifier: classifier,
		Logger:     a.logger,
		Size:       a.cfg.Chunking.Size,
		Overlap:    a.cfg.Chunking.Overlap,
		BatchSize:  a.cfg.Embeddings.BatchSize,
		Separator:  a.cfg.Query.Separator,
		Preview:    a.cfg.Query.PreviewChars,
	})
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", store.Location(), err)
	}

	a.session = s
	return s, nil
}

func (a *app) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	a.embedder = nil
	a.session = nil
	return errors.Join(errs...)
}
