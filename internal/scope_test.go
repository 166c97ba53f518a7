package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScopePaths(t *testing.T) {
	scope := Scope{Path: "/home/user/project", WorkspacePath: "/home/user/project/.notedex"}

	if got, want := scope.IndexPath(), "/home/user/project/.notedex/index"; got != want {
		t.Errorf("IndexPath() = %q, want %q", got, want)
	}
	if got, want := scope.ConfigPath(), "/home/user/project/.notedex/config.yaml"; got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
	if got, want := scope.Resolve("data"), "/home/user/project/data"; got != want {
		t.Errorf("Resolve(data) = %q, want %q", got, want)
	}
	if got, want := scope.Resolve("/abs/data"), "/abs/data"; got != want {
		t.Errorf("Resolve(/abs/data) = %q, want %q", got, want)
	}
}

func TestScopeResolverGlobal(t *testing.T) {
	resolver := NewScopeResolver()
	scope := resolver.Global()

	if scope.Type != ScopeGlobal {
		t.Errorf("expected ScopeGlobal, got %q", scope.Type)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, WorkspaceDirname)
	if scope.WorkspacePath != expected {
		t.Errorf("expected WorkspacePath %q, got %q", expected, scope.WorkspacePath)
	}
}

func TestScopeResolverProjectNotFound(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)

	resolver := &ScopeResolver{homeDir: t.TempDir()}
	if _, found := resolver.Project(); found {
		t.Error("expected Project() to return false when no workspace exists")
	}
}

func TestScopeResolverProjectInParent(t *testing.T) {
	tmp := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmp, WorkspaceDirname), 0755); err != nil {
		t.Fatal(err)
	}
	subDir := filepath.Join(tmp, "sub", "dir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(subDir)

	resolver := &ScopeResolver{homeDir: t.TempDir()}
	scope, found := resolver.Project()
	if !found {
		t.Fatal("expected Project() to find workspace in parent")
	}
	if scope.Type != ScopeProject {
		t.Errorf("expected ScopeProject, got %q", scope.Type)
	}

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedPath, _ := filepath.EvalSymlinks(tmp)
	actualPath, _ := filepath.EvalSymlinks(scope.Path)
	if actualPath != expectedPath {
		t.Errorf("expected Path %q, got %q", expectedPath, actualPath)
	}
}

func TestScopeResolverResolve(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)

	resolver := &ScopeResolver{homeDir: t.TempDir()}
	if scope := resolver.Resolve(""); scope.Type != ScopeGlobal {
		t.Errorf("expected fallback to ScopeGlobal, got %q", scope.Type)
	}

	if err := os.Mkdir(filepath.Join(tmp, WorkspaceDirname), 0755); err != nil {
		t.Fatal(err)
	}
	if scope := resolver.Resolve(""); scope.Type != ScopeProject {
		t.Errorf("expected ScopeProject, got %q", scope.Type)
	}
	if scope := resolver.Resolve("global"); scope.Type != ScopeGlobal {
		t.Errorf("expected explicit ScopeGlobal, got %q", scope.Type)
	}
}
