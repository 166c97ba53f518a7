package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE entries (
	seq         INTEGER PRIMARY KEY,
	chunk_id    TEXT NOT NULL,
	document_id TEXT NOT NULL,
	source      TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	char_offset INTEGER NOT NULL,
	text        TEXT NOT NULL,
	vector      BLOB NOT NULL
);
CREATE INDEX idx_entries_document ON entries(document_id);
`

var _ IndexStore = (*SQLiteStore)(nil)

// SQLiteStore keeps an index in a single SQLite file. Each save builds a
// fresh database beside the target and renames it over the old one.
type SQLiteStore struct {
	path string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Location() string { return s.path }
func (s *SQLiteStore) Format() string   { return FormatSQLite }

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.Dimension <= 0 {
		return fmt.Errorf("%w: snapshot dimension must be positive", ErrInvalidArgument)
	}
	for _, e := range snap.Entries {
		if err := CheckDimension(e.Vector, snap.Dimension); err != nil {
			return fmt.Errorf("entry %s: %w", e.Chunk.ID, err)
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp database: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := s.writeDatabase(ctx, tmpName, snap); err != nil {
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename database: %w", err)
	}
	return syncDir(dir)
}

func (s *SQLiteStore) writeDatabase(ctx context.Context, path string, snap Snapshot) error {
	dsn, err := sqliteDSN(path, "_journal_mode=DELETE&_synchronous=FULL")
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	meta := map[string]string{
		"format":    "notedex-sqlite",
		"version":   strconv.Itoa(bundleVersion),
		"dimension": strconv.Itoa(snap.Dimension),
		"model":     snap.Model,
		"count":     strconv.Itoa(len(snap.Entries)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries
		(seq, chunk_id, document_id, source, chunk_index, char_offset, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range snap.Entries {
		c := e.Chunk
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.DocumentID, c.Source, c.Index, c.Offset, c.Text, encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("insert entry %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// sqliteDSN builds a file: URI for path. The path is made absolute and
// escaped so names containing '#', '%' or '?' reach SQLite unchanged.
func sqliteDSN(path, query string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p, RawQuery: query}).String(), nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrIndexNotFound, s.path)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat index: %w", err)
	}
	if info.IsDir() {
		return Snapshot{}, fmt.Errorf("%w: %s is a directory", ErrIndexCorrupt, s.path)
	}

	dsn, err := sqliteDSN(s.path, "mode=ro")
	if err != nil {
		return Snapshot{}, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if meta["format"] != "notedex-sqlite" {
		return Snapshot{}, fmt.Errorf("%w: unexpected format %q", ErrIndexCorrupt, meta["format"])
	}
	dim, err := strconv.Atoi(meta["dimension"])
	if err != nil || dim <= 0 {
		return Snapshot{}, fmt.Errorf("%w: invalid dimension %q", ErrIndexCorrupt, meta["dimension"])
	}
	count, err := strconv.Atoi(meta["count"])
	if err != nil || count < 0 {
		return Snapshot{}, fmt.Errorf("%w: invalid count %q", ErrIndexCorrupt, meta["count"])
	}

	rows, err := db.QueryContext(ctx, `SELECT chunk_id, document_id, source, chunk_index, char_offset, text, vector
		FROM entries ORDER BY seq`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: query entries: %v", ErrIndexCorrupt, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, count)
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Source, &c.Index, &c.Offset, &c.Text, &blob); err != nil {
			return Snapshot{}, fmt.Errorf("%w: scan entry: %v", ErrIndexCorrupt, err)
		}
		if len(blob) != dim*4 {
			return Snapshot{}, fmt.Errorf("%w: entry %s has %d vector bytes, want %d", ErrIndexCorrupt, c.ID, len(blob), dim*4)
		}
		entries = append(entries, Entry{Chunk: c, Vector: decodeVector(blob)})
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: iterate entries: %v", ErrIndexCorrupt, err)
	}
	if len(entries) != count {
		return Snapshot{}, fmt.Errorf("%w: meta lists %d entries, found %d", ErrIndexCorrupt, count, len(entries))
	}

	return Snapshot{Dimension: dim, Model: meta["model"], Entries: entries}, nil
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}
