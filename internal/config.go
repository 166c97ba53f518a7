package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type EmbeddingsConfig struct {
	Backend     string `yaml:"backend"`
	Model       string `yaml:"model,omitempty"`
	Dimension   int    `yaml:"dimension"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	BatchSize   int    `yaml:"batch_size,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs,omitempty"`
}

// StoreConfig selects the index format. Empty infers it from the index
// path extension.
type StoreConfig struct {
	Format string `yaml:"format,omitempty"`
}

type QueryConfig struct {
	K            int    `yaml:"k"`
	Separator    string `yaml:"separator"`
	PreviewChars int    `yaml:"preview_chars"`
}

type SentimentConfig struct {
	Classifier string `yaml:"classifier,omitempty"`
	Lexicon    string `yaml:"lexicon,omitempty"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	DataDir    string           `yaml:"data_dir"`
	IndexPath  string           `yaml:"index_path,omitempty"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Store      StoreConfig      `yaml:"store"`
	Query      QueryConfig      `yaml:"query"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	Watch      WatchConfig      `yaml:"watch"`
	Log        LogConfig        `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Chunking: ChunkingConfig{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Embeddings: EmbeddingsConfig{
			Backend:   BackendHash,
			Dimension: DefaultDimension,
		},
		Query: QueryConfig{
			K:            DefaultTopK,
			Separator:    DefaultSeparator,
			PreviewChars: DefaultPreviewChars,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// LoadConfig reads the scope's config file over the defaults, so a partial
// file only overrides what it mentions.
func LoadConfig(scope Scope) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(scope.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(scope.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 || c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking size %d overlap %d", ErrInvalidArgument, c.Chunking.Size, c.Chunking.Overlap)
	}
	if c.Embeddings.Dimension < 0 {
		return fmt.Errorf("%w: embeddings dimension %d", ErrInvalidArgument, c.Embeddings.Dimension)
	}
	switch c.Embeddings.Backend {
	case "", BackendHash, BackendOpenAI:
	default:
		return fmt.Errorf("%w: unknown embeddings backend %q", ErrInvalidArgument, c.Embeddings.Backend)
	}
	switch c.Store.Format {
	case "", FormatBundle, FormatSQLite:
	default:
		return fmt.Errorf("%w: unknown store format %q", ErrInvalidArgument, c.Store.Format)
	}
	switch c.Sentiment.Classifier {
	case "", ClassifierLexicon, ClassifierVader:
	default:
		return fmt.Errorf("%w: unknown sentiment classifier %q", ErrInvalidArgument, c.Sentiment.Classifier)
	}
	if c.Query.K <= 0 {
		return fmt.Errorf("%w: query k must be positive, got %d", ErrInvalidArgument, c.Query.K)
	}
	if c.Query.PreviewChars < 0 {
		return fmt.Errorf("%w: preview chars %d", ErrInvalidArgument, c.Query.PreviewChars)
	}
	return nil
}

// ResolveIndexPath returns the configured index location, defaulting to
// the scope's workspace.
func (c *Config) ResolveIndexPath(scope Scope) string {
	if c.IndexPath != "" {
		return scope.Resolve(c.IndexPath)
	}
	return scope.IndexPath()
}

func (c *Config) ResolveDataDir(scope Scope) string {
	return scope.Resolve(c.DataDir)
}
