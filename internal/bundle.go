package internal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ManifestFilename = "manifest.json"
	bundleFormatTag  = "notedex-bundle"
	bundleVersion    = 1
)

var _ IndexStore = (*BundleStore)(nil)

// BundleStore keeps an index as a directory: a manifest plus one chunk
// metadata file and one raw vector file per generation. Renaming the
// manifest is the commit point of a save.
type BundleStore struct {
	dir string
}

type bundleManifest struct {
	Format        string `json:"format"`
	Version       int    `json:"version"`
	Generation    int    `json:"generation"`
	Dimension     int    `json:"dimension"`
	Model         string `json:"model"`
	Count         int    `json:"count"`
	ChunksFile    string `json:"chunks_file"`
	ChunksSHA256  string `json:"chunks_sha256"`
	VectorsFile   string `json:"vectors_file"`
	VectorsSHA256 string `json:"vectors_sha256"`
}

func NewBundleStore(dir string) *BundleStore {
	return &BundleStore{dir: dir}
}

func (b *BundleStore) Location() string { return b.dir }
func (b *BundleStore) Format() string   { return FormatBundle }

func (b *BundleStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.Dimension <= 0 {
		return fmt.Errorf("%w: snapshot dimension must be positive", ErrInvalidArgument)
	}
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	chunks := make([]Chunk, len(snap.Entries))
	vectors := make([]byte, 0, len(snap.Entries)*snap.Dimension*4)
	for i, e := range snap.Entries {
		if err := CheckDimension(e.Vector, snap.Dimension); err != nil {
			return fmt.Errorf("entry %s: %w", e.Chunk.ID, err)
		}
		chunks[i] = e.Chunk
		vectors = append(vectors, encodeVector(e.Vector)...)
	}

	chunkData, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}

	gen := 1
	if prev, err := b.readManifest(); err == nil {
		gen = prev.Generation + 1
	}

	m := bundleManifest{
		Format:        bundleFormatTag,
		Version:       bundleVersion,
		Generation:    gen,
		Dimension:     snap.Dimension,
		Model:         snap.Model,
		Count:         len(snap.Entries),
		ChunksFile:    "chunks-" + strconv.Itoa(gen) + ".json",
		ChunksSHA256:  checksum(chunkData),
		VectorsFile:   "vectors-" + strconv.Itoa(gen) + ".bin",
		VectorsSHA256: checksum(vectors),
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(b.dir, m.ChunksFile), chunkData, 0644); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(b.dir, m.VectorsFile), vectors, 0644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	manifestData, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(b.dir, ManifestFilename), manifestData, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	b.removeStale(m)
	return nil
}

func (b *BundleStore) Load(ctx context.Context) (Snapshot, error) {
	info, err := os.Stat(b.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrIndexNotFound, b.dir)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat index: %w", err)
	}
	if !info.IsDir() {
		return Snapshot{}, fmt.Errorf("%w: %s is not an index directory", ErrIndexCorrupt, b.dir)
	}

	m, err := b.readManifest()
	if err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	chunkData, err := b.readChecked(m.ChunksFile, m.ChunksSHA256)
	if err != nil {
		return Snapshot{}, err
	}
	vectorData, err := b.readChecked(m.VectorsFile, m.VectorsSHA256)
	if err != nil {
		return Snapshot{}, err
	}

	var chunks []Chunk
	if err := json.Unmarshal(chunkData, &chunks); err != nil {
		return Snapshot{}, fmt.Errorf("%w: parse chunks: %v", ErrIndexCorrupt, err)
	}
	if len(chunks) != m.Count {
		return Snapshot{}, fmt.Errorf("%w: manifest lists %d chunks, found %d", ErrIndexCorrupt, m.Count, len(chunks))
	}

	stride := m.Dimension * 4
	if len(vectorData) != m.Count*stride {
		return Snapshot{}, fmt.Errorf("%w: vector data is %d bytes, want %d", ErrIndexCorrupt, len(vectorData), m.Count*stride)
	}

	entries := make([]Entry, m.Count)
	for i := range chunks {
		entries[i] = Entry{
			Chunk:  chunks[i],
			Vector: decodeVector(vectorData[i*stride : (i+1)*stride]),
		}
	}

	return Snapshot{Dimension: m.Dimension, Model: m.Model, Entries: entries}, nil
}

func (b *BundleStore) readManifest() (bundleManifest, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, ManifestFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return bundleManifest{}, fmt.Errorf("%w: %s", ErrIndexNotFound, b.dir)
	}
	if err != nil {
		return bundleManifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m bundleManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return bundleManifest{}, fmt.Errorf("%w: parse manifest: %v", ErrIndexCorrupt, err)
	}

	switch {
	case m.Format != bundleFormatTag:
		return bundleManifest{}, fmt.Errorf("%w: unexpected format %q", ErrIndexCorrupt, m.Format)
	case m.Version != bundleVersion:
		return bundleManifest{}, fmt.Errorf("%w: unsupported version %d", ErrIndexCorrupt, m.Version)
	case m.Dimension <= 0 || m.Count < 0:
		return bundleManifest{}, fmt.Errorf("%w: invalid dimension %d or count %d", ErrIndexCorrupt, m.Dimension, m.Count)
	case !localName(m.ChunksFile) || !localName(m.VectorsFile):
		return bundleManifest{}, fmt.Errorf("%w: data files must live inside the index directory", ErrIndexCorrupt)
	}
	return m, nil
}

func (b *BundleStore) readChecked(name, sum string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIndexCorrupt, name, err)
	}
	if checksum(data) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch for %s", ErrIndexCorrupt, name)
	}
	return data, nil
}

// removeStale drops data files of older generations. Failures are harmless
// since the manifest never points at them again.
func (b *BundleStore) removeStale(current bundleManifest) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if name == current.ChunksFile || name == current.VectorsFile {
			continue
		}
		if isGenerationFile(name) {
			_ = os.Remove(filepath.Join(b.dir, name))
		}
	}
}

func isGenerationFile(name string) bool {
	return (strings.HasPrefix(name, "chunks-") && strings.HasSuffix(name, ".json")) ||
		(strings.HasPrefix(name, "vectors-") && strings.HasSuffix(name, ".bin"))
}

func localName(name string) bool {
	return name != "" && name == filepath.Base(name) && name != "." && name != ".."
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
