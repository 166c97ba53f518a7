package internal

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultDimension = 384
	hashModelName    = "hash-v2"
	bigramWeight     = 0.5
	charGramSize     = 3
	charGramWeight   = 0.1
	rawTextWeight    = 0.5
)

var _ Embedder = (*HashEmbedder)(nil)

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// HashEmbedder maps text into a fixed number of signed buckets using
// hashed word unigrams and bigrams. Character trigrams and the whole text,
// both taken verbatim, keep texts that differ only in case or punctuation
// apart. It needs no model files and is a pure function of its input.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension == 0 {
		dimension = DefaultDimension
	}
	if dimension < 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidArgument, dimension)
	}
	return &HashEmbedder{dimension: dimension}, nil
}

func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dimension)
	tokens := tokenize(text)
	for i, tok := range tokens {
		e.accumulate(vec, tok, 1)
		if i > 0 {
			e.accumulate(vec, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	runes := []rune(text)
	for i := 0; i+charGramSize <= len(runes); i++ {
		e.accumulate(vec, "c\x00"+string(runes[i:i+charGramSize]), charGramWeight)
	}
	if text != "" {
		e.accumulate(vec, "t\x00"+text, rawTextWeight)
	}

	return l2Normalize(vec), nil
}

func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		results[i] = emb
	}

	return results, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) Model() string {
	return fmt.Sprintf("%s-%d", hashModelName, e.dimension)
}

func (e *HashEmbedder) Close() error {
	return nil
}

func (e *HashEmbedder) accumulate(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	bucket := h % uint64(e.dimension)
	if h>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}
