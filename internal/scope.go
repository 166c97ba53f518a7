package internal

import (
	"os"
	"path/filepath"
)

const WorkspaceDirname = ".notedex"

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

type Scope struct {
	Type          ScopeType
	Path          string // root the workspace belongs to
	WorkspacePath string // .notedex directory path
}

func (s Scope) IndexPath() string {
	return filepath.Join(s.WorkspacePath, "index")
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.WorkspacePath, "config.yaml")
}

func (s Scope) EnvPath() string {
	return filepath.Join(s.Path, ".env")
}

// Resolve makes a relative path relative to the scope root.
func (s Scope) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Path, path)
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

func (r *ScopeResolver) Global() Scope {
	return Scope{
		Type:          ScopeGlobal,
		Path:          r.homeDir,
		WorkspacePath: filepath.Join(r.homeDir, WorkspaceDirname),
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

// ProjectAt returns the project scope rooted at dir without walking up.
func (r *ScopeResolver) ProjectAt(dir string) Scope {
	return Scope{
		Type:          ScopeProject,
		Path:          dir,
		WorkspacePath: filepath.Join(dir, WorkspaceDirname),
	}
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		wsPath := filepath.Join(dir, WorkspaceDirname)
		info, err := os.Stat(wsPath)
		if err == nil && info.IsDir() && wsPath != r.Global().WorkspacePath {
			return r.ProjectAt(dir), true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve picks the global scope when asked for explicitly, else the
// nearest project scope, else global.
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == string(ScopeGlobal) {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}
