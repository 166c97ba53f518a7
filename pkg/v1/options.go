package v1

import "log/slog"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	indexPath  string
	format     string
	size       int
	overlap    int
	embedder   Embedder
	classifier SentimentClassifier
	fallback   []Document
	logger     *slog.Logger
	scope      string
}

// WithIndexPath overrides the index location from the workspace config.
// Paths ending in .db or .sqlite select the SQLite format.
func WithIndexPath(path string) Option {
	return func(c *clientConfig) {
		c.indexPath = path
	}
}

// WithFormat forces the index format ("bundle" or "sqlite").
func WithFormat(format string) Option {
	return func(c *clientConfig) {
		c.format = format
	}
}

// WithChunking sets chunk size and overlap for documents appended through
// the client and for a bootstrapped index.
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.size = size
		c.overlap = overlap
	}
}

// WithEmbedder replaces the configured embedding backend.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithClassifier replaces the built-in lexicon sentiment classifier.
func WithClassifier(sc SentimentClassifier) Option {
	return func(c *clientConfig) {
		c.classifier = sc
	}
}

// WithFallbackDocuments seeds a new index when none exists at the index path.
func WithFallbackDocuments(docs ...Document) Option {
	return func(c *clientConfig) {
		c.fallback = docs
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithScope forces a specific scope (global or project).
func WithScope(scope string) Option {
	return func(c *clientConfig) {
		c.scope = scope
	}
}
