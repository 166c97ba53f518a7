package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIgnore(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IgnoreFilename), []byte(content), 0644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}
}

func TestIgnoreMatcherEmpty(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if m.Match(filepath.Join(tmpDir, "anything.txt")) {
		t.Error("empty ignore should not match anything")
	}
}

func TestIgnoreMatcherExactPattern(t *testing.T) {
	tmpDir := t.TempDir()
	writeIgnore(t, tmpDir, "secret.txt\n")

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if !m.Match(filepath.Join(tmpDir, "secret.txt")) {
		t.Error("expected 'secret.txt' to be ignored")
	}
	if m.Match(filepath.Join(tmpDir, "public.txt")) {
		t.Error("expected 'public.txt' to not be ignored")
	}
}

func TestIgnoreMatcherGlobAndNegation(t *testing.T) {
	tmpDir := t.TempDir()
	writeIgnore(t, tmpDir, "draft-*.txt\n!draft-final.txt\n")

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if !m.Match(filepath.Join(tmpDir, "draft-1.txt")) {
		t.Error("expected 'draft-*.txt' to match 'draft-1.txt'")
	}
	if m.Match(filepath.Join(tmpDir, "draft-final.txt")) {
		t.Error("expected negated pattern to re-include 'draft-final.txt'")
	}
	if m.Match(filepath.Join(tmpDir, "notes.txt")) {
		t.Error("expected 'notes.txt' to not be ignored")
	}
}

func TestIgnoreMatcherComments(t *testing.T) {
	tmpDir := t.TempDir()
	writeIgnore(t, tmpDir, "# this is a comment\nsecret.txt\n# another comment\n")

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if !m.Match(filepath.Join(tmpDir, "secret.txt")) {
		t.Error("expected 'secret.txt' to be ignored despite comments")
	}
	if m.Match(filepath.Join(tmpDir, "# this is a comment")) {
		t.Error("expected comment not to be a pattern")
	}
}

func TestIgnoreMatcherDirPatternSkipsFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeIgnore(t, tmpDir, "archive/\n")

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if m.Match(filepath.Join(tmpDir, "archive")) {
		t.Error("expected 'archive/' not to match a plain file")
	}
}
