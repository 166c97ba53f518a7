package internal

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Label thresholds are exclusive: exactly 0.1 is neutral.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1

	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"

	negationFactor = -0.5
	negationWindow = 2
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// SentimentClassifier scores text polarity. Implementations should return a
// value in [-1, 1]; callers clamp anything outside that range.
type SentimentClassifier interface {
	Polarity(text string) float64
}

type ClassifierFunc func(text string) float64

func (f ClassifierFunc) Polarity(text string) float64 { return f(text) }

// SentimentLabel maps a polarity to its label.
func SentimentLabel(polarity float64) string {
	switch {
	case polarity > PositiveThreshold:
		return LabelPositive
	case polarity < NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// ClampPolarity forces p into [-1, 1] and maps NaN to 0.
func ClampPolarity(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(-1, math.Min(1, p))
}

type Lexicon struct {
	Words        map[string]float64 `yaml:"words"`
	Intensifiers map[string]float64 `yaml:"intensifiers"`
	Negations    []string           `yaml:"negations"`
}

// LexiconClassifier averages the polarity of known opinion words. A word
// preceded by an intensifier is scaled, one preceded by a negation within
// two tokens is flipped and halved.
type LexiconClassifier struct {
	words        map[string]float64
	intensifiers map[string]float64
	negations    map[string]bool
}

var _ SentimentClassifier = (*LexiconClassifier)(nil)

func NewLexiconClassifier(lex Lexicon) *LexiconClassifier {
	c := &LexiconClassifier{
		words:        lex.Words,
		intensifiers: lex.Intensifiers,
		negations:    make(map[string]bool, len(lex.Negations)),
	}
	if c.words == nil {
		c.words = map[string]float64{}
	}
	if c.intensifiers == nil {
		c.intensifiers = map[string]float64{}
	}
	for _, n := range lex.Negations {
		c.negations[n] = true
	}
	return c
}

// DefaultClassifier returns the classifier backed by the embedded lexicon.
func DefaultClassifier() *LexiconClassifier {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return NewLexiconClassifier(lex)
}

func ParseLexicon(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon: %w", err)
	}
	return lex, nil
}

// LoadLexicon reads a lexicon file. An empty path yields the embedded one.
func LoadLexicon(path string) (Lexicon, error) {
	if path == "" {
		return ParseLexicon(defaultLexicon)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

func (c *LexiconClassifier) Polarity(text string) float64 {
	tokens := tokenize(text)

	var sum float64
	var matched int
	for i, tok := range tokens {
		p, ok := c.words[tok]
		if !ok {
			continue
		}

		if i > 0 {
			if f, ok := c.intensifiers[tokens[i-1]]; ok {
				p *= f
			}
		}
		for j := max(0, i-negationWindow); j < i; j++ {
			if c.negations[tokens[j]] {
				p *= negationFactor
				break
			}
		}

		sum += p
		matched++
	}

	if matched == 0 {
		return 0
	}
	return ClampPolarity(sum / float64(matched))
}
