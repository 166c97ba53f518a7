package internal

import (
	"errors"
	"fmt"
)

var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrEmptyQuery        = errors.New("empty query")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrModelMismatch     = errors.New("embedding model mismatch")
	ErrIndexNotFound     = errors.New("index not found")
	ErrIndexCorrupt      = errors.New("index corrupt")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// DimensionError reports a vector whose length differs from the index dimension.
type DimensionError struct {
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// CheckDimension fails fast when an embedder hands back a vector of the wrong size.
func CheckDimension(vec []float32, want int) error {
	if len(vec) != want {
		return &DimensionError{Expected: want, Got: len(vec)}
	}
	return nil
}
