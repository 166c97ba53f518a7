package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// documentNamespace scopes the content-addressed document IDs.
var documentNamespace = uuid.MustParse("6f1c3c52-7a0e-4c1e-9a55-3f0e8d2b6a41")

type Document struct {
	ID      string
	Source  string
	Content string
}

// NewDocument derives the ID from source and content, so an unchanged
// document always maps to the same ID and an edited one never does.
func NewDocument(source, content string) Document {
	return Document{
		ID:      DocumentID(source, content),
		Source:  source,
		Content: content,
	}
}

func DocumentID(source, content string) string {
	name := make([]byte, 0, len(source)+1+len(content))
	name = append(name, source...)
	name = append(name, 0)
	name = append(name, content...)
	return uuid.NewSHA1(documentNamespace, name).String()
}

func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return NewDocument(filepath.Clean(path), string(data)), nil
}

type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Index      int    `json:"index"`
	Offset     int    `json:"offset"`
	Text       string `json:"text"`
}

func chunkID(documentID string, index int) string {
	return documentID + ":" + strconv.Itoa(index)
}
