package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/notedex/internal"
)

// Client provides programmatic access to a notedex index. It owns one
// session; share a Client rather than opening several on the same index.
type Client struct {
	uc      *internal.UseCases
	session *internal.Session
}

// New opens the index for the resolved scope, building it from the
// fallback documents when nothing is persisted yet.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	resolver := internal.NewScopeResolver()
	scope := resolver.Resolve(cfg.scope)

	conf, err := internal.LoadConfig(scope)
	if err != nil {
		return nil, err
	}

	indexPath := conf.ResolveIndexPath(scope)
	format := conf.Store.Format
	if cfg.indexPath != "" {
		indexPath = cfg.indexPath
		format = ""
	}
	if cfg.format != "" {
		format = cfg.format
	}

	store, err := internal.OpenStore(indexPath, format)
	if err != nil {
		return nil, err
	}

	var embedder internal.Embedder = cfg.embedder
	if embedder == nil {
		if embedder, err = internal.NewEmbedder(conf.Embeddings); err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
	}

	var classifier internal.SentimentClassifier = cfg.classifier
	if classifier == nil {
		if classifier, err = internal.NewClassifier(conf.Sentiment.Classifier, scope.Resolve(conf.Sentiment.Lexicon)); err != nil {
			return nil, err
		}
	}

	size, overlap := conf.Chunking.Size, conf.Chunking.Overlap
	if cfg.size > 0 {
		size, overlap = cfg.size, cfg.overlap
	}

	var fallback []internal.Document
	for _, d := range cfg.fallback {
		fallback = append(fallback, internal.NewDocument(d.Source, d.Content))
	}

	session, err := internal.OpenSession(context.Background(), internal.SessionConfig{
		Store:      store,
		Embedder:   embedder,
		Classifier: classifier,
		Logger:     cfg.logger,
		Size:       size,
		Overlap:    overlap,
		BatchSize:  conf.Embeddings.BatchSize,
		Separator:  conf.Query.Separator,
		Preview:    conf.Query.PreviewChars,
		Fallback:   fallback,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}

	sessionFn := func(context.Context) (*internal.Session, error) { return session, nil }
	return &Client{
		uc:      internal.NewUseCases(sessionFn),
		session: session,
	}, nil
}

// Query returns up to k chunks most relevant to text.
func (c *Client) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	out, err := c.uc.Query.Execute(ctx, internal.QueryInput{Text: text, K: k})
	if err != nil {
		return nil, err
	}
	return toHits(out.Hits), nil
}

// CombinedQuery blends auxiliary text, such as an uploaded note, into the
// query. An empty auxiliary behaves like Query.
func (c *Client) CombinedQuery(ctx context.Context, primary, auxiliary string, k int) ([]Hit, error) {
	out, err := c.uc.Query.Execute(ctx, internal.QueryInput{Text: primary, Context: auxiliary, K: k})
	if err != nil {
		return nil, err
	}
	return toHits(out.Hits), nil
}

// Append indexes one document and persists the index. It returns the
// number of chunks added.
func (c *Client) Append(ctx context.Context, doc Document) (int, error) {
	out, err := c.uc.Append.Execute(ctx, internal.AppendInput{
		Uploads: []internal.Upload{{Name: doc.Source, Content: doc.Content}},
	})
	if err != nil {
		return 0, fmt.Errorf("append: %w", err)
	}
	return out.Total, nil
}

// AppendFile indexes the file at path.
func (c *Client) AppendFile(ctx context.Context, path string) (int, error) {
	out, err := c.uc.Append.Execute(ctx, internal.AppendInput{Paths: []string{path}})
	if err != nil {
		return 0, fmt.Errorf("append: %w", err)
	}
	return out.Total, nil
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	out, err := c.uc.Status.Execute(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status(out.IndexStatus), nil
}

// Close releases the embedder.
func (c *Client) Close() error {
	return c.session.Close()
}
