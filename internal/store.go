package internal

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const (
	FormatBundle = "bundle"
	FormatSQLite = "sqlite"
)

// IndexStore persists index snapshots. Save must be atomic: a reader either
// sees the previous snapshot or the new one, never a mix.
type IndexStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Location() string
	Format() string
}

// OpenStore picks a store for path. An empty format is inferred from the
// path's extension and falls back to the bundle layout.
func OpenStore(path, format string) (IndexStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty index path", ErrInvalidArgument)
	}
	if format == "" {
		format = inferFormat(path)
	}

	switch format {
	case FormatBundle:
		return NewBundleStore(path), nil
	case FormatSQLite:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("%w: unknown index format %q", ErrInvalidArgument, format)
	}
}

func inferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatBundle
	}
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// writeFileAtomic writes data next to path, syncs it and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	// Some filesystems refuse fsync on directories.
	_ = d.Sync()
	return nil
}
