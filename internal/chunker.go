package internal

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits text into fixed-size character windows where each window
// repeats the last Overlap characters of its predecessor.
type Chunker struct {
	size    int
	overlap int
}

// Window is a slice of a document's text. Offset counts runes, not bytes.
type Window struct {
	Text   string
	Offset int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidArgument, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidArgument, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Split(text string) []Window {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap

	var windows []Window
	for start := 0; start < len(runes); start += step {
		end := min(start+c.size, len(runes))
		windows = append(windows, Window{Text: string(runes[start:end]), Offset: start})
		if end == len(runes) {
			break
		}
	}
	return windows
}

func (c *Chunker) Chunk(doc Document) []Chunk {
	windows := c.Split(doc.Content)
	chunks := make([]Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = Chunk{
			ID:         chunkID(doc.ID, i),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Index:      i,
			Offset:     w.Offset,
			Text:       w.Text,
		}
	}
	return chunks
}

// ReconstructText stitches a document's chunks back together using their
// offsets. Chunks must belong to one document and be in order.
func ReconstructText(chunks []Chunk) string {
	var sb strings.Builder
	covered := 0
	for _, ch := range chunks {
		runes := []rune(ch.Text)
		skip := covered - ch.Offset
		if skip < 0 {
			skip = 0
		}
		if skip >= len(runes) {
			continue
		}
		sb.WriteString(string(runes[skip:]))
		covered = ch.Offset + len(runes)
	}
	return sb.String()
}
