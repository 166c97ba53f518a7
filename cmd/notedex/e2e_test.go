package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/4thel00z/notedex/internal"
)

// setupE2E creates an initialized workspace in a temp dir and makes it the
// working directory.
func setupE2E(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if _, err := runCLI(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	return tmpDir
}

// runCLI runs one command with a fresh app, the way separate process
// invocations would.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	a := newApp()
	defer a.Close()

	root := NewRootCmd("test", a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeNote(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestE2EIngestAndQuery(t *testing.T) {
	root := setupE2E(t)
	dataDir := filepath.Join(root, "data")
	writeNote(t, filepath.Join(dataDir, "a.txt"), "Team burnout after back-to-back meetings.")
	writeNote(t, filepath.Join(dataDir, "b.txt"), "Quarterly budget approved by finance.")

	out, err := runCLI(t, "ingest")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(out, "Ingested 2 chunks from 2 documents") {
		t.Errorf("unexpected ingest output: %q", out)
	}

	out, err = runCLI(t, "query", "burnout", "-k", "1", "--json")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	var hits []internal.AnnotatedHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("decode hits: %v\n%s", err, out)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].ChunkText != "Team burnout after back-to-back meetings." {
		t.Errorf("top hit = %q", hits[0].ChunkText)
	}
	if hits[0].SentimentLabel != internal.LabelNegative {
		t.Errorf("label = %q, want negative", hits[0].SentimentLabel)
	}

	out, err = runCLI(t, "query", "budget", "--context", "finance approval")
	if err != nil {
		t.Fatalf("combined query: %v", err)
	}
	if !strings.Contains(out, "Result 1") || !strings.Contains(out, "Sentiment:") {
		t.Errorf("unexpected query output: %q", out)
	}
}

func TestE2EIngestFailureWritesNothing(t *testing.T) {
	root := setupE2E(t)
	writeNote(t, filepath.Join(root, "data", "empty.txt"), "")

	_, err := runCLI(t, "ingest")
	if !errors.Is(err, internal.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".notedex", "index")); !os.IsNotExist(err) {
		t.Errorf("index written despite failure: %v", err)
	}

	_, err = runCLI(t, "ingest", filepath.Join(root, "missing"))
	if !errors.Is(err, internal.ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestE2EBootstrapAppendStatusDiff(t *testing.T) {
	root := setupE2E(t)

	out, err := runCLI(t, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status internal.IndexStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Entries != 3 || status.Documents != 3 {
		t.Errorf("bootstrap index has %d entries / %d documents, want 3/3", status.Entries, status.Documents)
	}

	note := filepath.Join(root, "upload.txt")
	writeNote(t, note, "Retro: deploy went smoothly\nAction: add on-call rotation\n")

	out, err = runCLI(t, "append", note)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !strings.Contains(out, "appended") {
		t.Errorf("unexpected append output: %q", out)
	}

	out, err = runCLI(t, "append", "--skip-existing", note)
	if err != nil {
		t.Fatalf("append again: %v", err)
	}
	if !strings.Contains(out, "skipped") {
		t.Errorf("expected skip, got %q", out)
	}

	out, err = runCLI(t, "diff", note)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "No changes.") {
		t.Errorf("expected no changes, got %q", out)
	}

	writeNote(t, note, "Retro: deploy went smoothly\nAction: add on-call rotation\nAction: fix alerts\n")
	out, err = runCLI(t, "diff", note)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "+ Action: fix alerts") {
		t.Errorf("expected added line in diff, got %q", out)
	}

	out, err = runCLI(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Documents: 4") {
		t.Errorf("expected 4 documents, got %q", out)
	}
}

func TestE2EQueryEmpty(t *testing.T) {
	setupE2E(t)

	_, err := runCLI(t, "query", "   ")
	if !errors.Is(err, internal.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestE2ESQLiteIndexPath(t *testing.T) {
	root := setupE2E(t)
	writeNote(t, filepath.Join(root, "data", "a.txt"), "Team burnout after back-to-back meetings.")
	db := filepath.Join(root, "notes.db")

	out, err := runCLI(t, "ingest", filepath.Join(root, "data"), db)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(out, "(sqlite)") {
		t.Errorf("expected sqlite index, got %q", out)
	}

	out, err = runCLI(t, "--index-path", db, "query", "burnout", "-k", "1", "--json")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var hits []internal.AnnotatedHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("decode hits: %v\n%s", err, out)
	}
	if len(hits) != 1 || hits[0].ChunkText != "Team burnout after back-to-back meetings." {
		t.Errorf("unexpected hits: %+v", hits)
	}

	out, err = runCLI(t, "--index-path", db, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status internal.IndexStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Format != internal.FormatSQLite || status.Entries != 1 {
		t.Errorf("status = %+v, want 1 sqlite entry", status)
	}
}

func TestE2EVaderClassifierFromConfig(t *testing.T) {
	root := setupE2E(t)

	scope := internal.NewScopeResolver().Resolve("")
	cfg, err := internal.LoadConfig(scope)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Sentiment.Classifier = internal.ClassifierVader
	if err := internal.SaveConfig(scope, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	writeNote(t, filepath.Join(root, "data", "launch.txt"), "The launch was a great success and the team is happy.")
	if _, err := runCLI(t, "ingest"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	out, err := runCLI(t, "query", "launch success", "-k", "1", "--json")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var hits []internal.AnnotatedHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("decode hits: %v\n%s", err, out)
	}
	if len(hits) != 1 || hits[0].SentimentLabel != internal.LabelPositive {
		t.Errorf("unexpected hits: %+v", hits)
	}
}
