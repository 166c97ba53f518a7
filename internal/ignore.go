package internal

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const IgnoreFilename = ".notedexignore"

// IgnoreMatcher filters data directory files using gitignore syntax read
// from the directory's .notedexignore. Later patterns win, so "!keep.txt"
// re-includes a file an earlier glob excluded.
type IgnoreMatcher struct {
	matcher  gitignore.Matcher
	basePath string
	patterns int
}

func NewIgnoreMatcher(basePath string) (*IgnoreMatcher, error) {
	patterns, err := parseIgnoreFile(filepath.Join(basePath, IgnoreFilename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &IgnoreMatcher{
		matcher:  gitignore.NewMatcher(patterns),
		basePath: basePath,
		patterns: len(patterns),
	}, nil
}

// Match reports whether the file at path is ignored. Directory-only
// patterns such as "archive/" never match a file.
func (m *IgnoreMatcher) Match(path string) bool {
	if m.patterns == 0 {
		return false
	}
	relPath, err := filepath.Rel(m.basePath, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}
	return m.matcher.Match(strings.Split(relPath, string(filepath.Separator)), false)
}

func parseIgnoreFile(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
