package internal

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SessionFunc hands out the process-wide session, opening it on first use.
type SessionFunc func(ctx context.Context) (*Session, error)

// Use case input/output DTOs

type IngestInput struct {
	DataDir   string
	IndexPath string
	Format    string
	Size      int
	Overlap   int
}

type IngestOutput struct {
	Documents int
	Chunks    int
	Location  string
	Format    string
}

type QueryInput struct {
	Text    string
	Context string
	K       int
}

type QueryOutput struct {
	Query string
	Hits  []AnnotatedHit
}

type Upload struct {
	Name    string
	Content string
}

type AppendInput struct {
	Paths        []string
	Uploads      []Upload
	SkipExisting bool
}

type AppendResult struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Skipped    bool   `json:"skipped,omitempty"`
}

type AppendOutput struct {
	Results []AppendResult
	Total   int
}

type StatusOutput struct {
	IndexStatus
	Sources []DocumentInfo
}

type DiffInput struct {
	Path string
}

type DiffOutput struct {
	Source    string
	Indexed   bool
	Changed   bool
	IndexedID string
	CurrentID string
	Inserted  int
	Deleted   int
	Diff      string
}

// Use cases

type IngestUseCase struct {
	embedder Embedder
	logger   *slog.Logger
}

func NewIngestUseCase(embedder Embedder, logger *slog.Logger) *IngestUseCase {
	if logger == nil {
		logger = discardLogger()
	}
	return &IngestUseCase{embedder: embedder, logger: logger}
}

// Execute builds a fresh index from a data directory and saves it. Nothing
// is written unless the whole build succeeds.
func (uc *IngestUseCase) Execute(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	store, err := OpenStore(input.IndexPath, input.Format)
	if err != nil {
		return nil, err
	}

	mgr := NewIndexManager(uc.embedder, WithManagerLogger(uc.logger))
	docs, err := mgr.LoadDirectory(ctx, input.DataDir)
	if err != nil {
		return nil, err
	}

	idx, err := mgr.Build(ctx, docs, input.Size, input.Overlap)
	if err != nil {
		return nil, err
	}

	if err := idx.Save(ctx, store); err != nil {
		return nil, err
	}

	uc.logger.Info("index saved", "location", store.Location(), "format", store.Format(), "chunks", idx.Len())

	return &IngestOutput{
		Documents: len(docs),
		Chunks:    idx.Len(),
		Location:  store.Location(),
		Format:    store.Format(),
	}, nil
}

type QueryUseCase struct {
	session SessionFunc
}

func NewQueryUseCase(session SessionFunc) *QueryUseCase {
	return &QueryUseCase{session: session}
}

func (uc *QueryUseCase) Execute(ctx context.Context, input QueryInput) (*QueryOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrEmptyQuery
	}

	s, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}

	k := input.K
	if k == 0 {
		k = DefaultTopK
	}

	hits, err := s.CombinedQuery(ctx, input.Text, input.Context, k)
	if err != nil {
		return nil, err
	}
	return &QueryOutput{Query: input.Text, Hits: hits}, nil
}

type AppendUseCase struct {
	session SessionFunc
}

func NewAppendUseCase(session SessionFunc) *AppendUseCase {
	return &AppendUseCase{session: session}
}

// Execute appends each file and upload in order and stops at the first
// failure. Documents appended before the failure stay persisted.
func (uc *AppendUseCase) Execute(ctx context.Context, input AppendInput) (*AppendOutput, error) {
	docs := make([]Document, 0, len(input.Paths)+len(input.Uploads))
	for _, path := range input.Paths {
		doc, err := LoadDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	for _, up := range input.Uploads {
		if up.Name == "" {
			return nil, fmt.Errorf("%w: upload without a name", ErrInvalidArgument)
		}
		docs = append(docs, NewDocument(up.Name, up.Content))
	}

	s, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}

	out := &AppendOutput{}
	for _, doc := range docs {
		res := AppendResult{Source: doc.Source, DocumentID: doc.ID}

		if input.SkipExisting && s.Index.ContainsDocument(doc.ID) {
			res.Skipped = true
			out.Results = append(out.Results, res)
			continue
		}

		n, err := s.Append(ctx, doc)
		if err != nil {
			return out, fmt.Errorf("append %s: %w", doc.Source, err)
		}
		res.Chunks = n
		out.Total += n
		out.Results = append(out.Results, res)
	}
	return out, nil
}

type StatusUseCase struct {
	session SessionFunc
}

func NewStatusUseCase(session SessionFunc) *StatusUseCase {
	return &StatusUseCase{session: session}
}

func (uc *StatusUseCase) Execute(ctx context.Context) (*StatusOutput, error) {
	s, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusOutput{
		IndexStatus: s.Status(),
		Sources:     s.Index.Documents(),
	}, nil
}

type DiffUseCase struct {
	session SessionFunc
}

func NewDiffUseCase(session SessionFunc) *DiffUseCase {
	return &DiffUseCase{session: session}
}

// Execute compares a file on disk with the text of its most recently
// indexed version, rebuilt from the stored chunks.
func (uc *DiffUseCase) Execute(ctx context.Context, input DiffInput) (*DiffOutput, error) {
	current, err := LoadDocument(input.Path)
	if err != nil {
		return nil, err
	}

	s, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}

	out := &DiffOutput{Source: current.Source, CurrentID: current.ID}

	info, ok := latestBySource(s.Index, current.Source)
	if !ok {
		out.Changed = true
		return out, nil
	}

	out.Indexed = true
	out.IndexedID = info.ID
	if info.ID == current.ID {
		return out, nil
	}

	indexed := ReconstructText(s.Index.DocumentChunks(info.ID))
	diffs := lineDiff(indexed, current.Content)

	out.Changed = true
	out.Diff = formatLineDiff(diffs)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out.Inserted += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			out.Deleted += countLines(d.Text)
		}
	}
	return out, nil
}

// latestBySource matches sources literally first, then by absolute path so
// "data/a.txt" and "./data/a.txt" refer to the same document.
func latestBySource(idx *FlatIndex, source string) (DocumentInfo, bool) {
	if info, ok := idx.LatestDocument(source); ok {
		return info, true
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return DocumentInfo{}, false
	}
	docs := idx.Documents()
	for i := len(docs) - 1; i >= 0; i-- {
		if other, err := filepath.Abs(docs[i].Source); err == nil && other == abs {
			return docs[i], true
		}
	}
	return DocumentInfo{}, false
}

func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func formatLineDiff(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	return len(splitLines(text))
}

// UseCases bundles the session-backed use cases for library callers.
type UseCases struct {
	Query  *QueryUseCase
	Append *AppendUseCase
	Status *StatusUseCase
	Diff   *DiffUseCase
}

func NewUseCases(session SessionFunc) *UseCases {
	return &UseCases{
		Query:  NewQueryUseCase(session),
		Append: NewAppendUseCase(session),
		Status: NewStatusUseCase(session),
		Diff:   NewDiffUseCase(session),
	}
}
