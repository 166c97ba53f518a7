package internal

import (
	"fmt"

	"github.com/jonreiter/govader"
)

const (
	ClassifierLexicon = "lexicon"
	ClassifierVader   = "vader"
)

// NewVaderClassifier scores text with VADER's compound score, which is
// already normalized to [-1, 1].
func NewVaderClassifier() SentimentClassifier {
	analyzer := govader.NewSentimentIntensityAnalyzer()
	return ClassifierFunc(func(text string) float64 {
		return ClampPolarity(analyzer.PolarityScores(text).Compound)
	})
}

// NewClassifier builds the classifier named by kind. The lexicon
// classifier reads lexiconPath, or the embedded lexicon when it is empty.
func NewClassifier(kind, lexiconPath string) (SentimentClassifier, error) {
	switch kind {
	case "", ClassifierLexicon:
		lex, err := LoadLexicon(lexiconPath)
		if err != nil {
			return nil, err
		}
		return NewLexiconClassifier(lex), nil
	case ClassifierVader:
		return NewVaderClassifier(), nil
	default:
		return nil, fmt.Errorf("%w: unknown sentiment classifier %q", ErrInvalidArgument, kind)
	}
}
