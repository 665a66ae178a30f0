package pyscribe

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileJob is a file queued for parsing.
type FileJob struct {
	AbsPath     string
	DisplayPath string
	Module      string
}

// defaultIgnoreDirs returns the directories never descended into.
func defaultIgnoreDirs() map[string]struct{} {
	return map[string]struct{}{
		".git":          {},
		".hg":           {},
		".svn":          {},
		".jj":           {},
		"node_modules":  {},
		"dist":          {},
		"build":         {},
		".venv":         {},
		"venv":          {},
		".tox":          {},
		".nox":          {},
		"__pycache__":   {},
		".mypy_cache":   {},
		".pytest_cache": {},
		".ruff_cache":   {},
		".eggs":         {},
		".cache":        {},
		"site-packages": {},
	}
}

// scannerConfig holds scanner configuration.
type scannerConfig struct {
	root       string
	moduleRoot string
	ignoreDirs map[string]struct{}
	exclude    []glob.Glob
	maxBytes   int64
}

// scanner discovers Python files and names their modules.
type scanner struct {
	cfg scannerConfig
}

func newScanner(cfg scannerConfig) *scanner {
	if cfg.ignoreDirs == nil {
		cfg.ignoreDirs = defaultIgnoreDirs()
	}
	return &scanner{cfg: cfg}
}

// compileGlobs compiles exclude patterns with '/' as the separator so '*'
// stays within one path segment and '**' spans several.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// collect finds all Python files under the root and returns them as FileJobs.
func (s *scanner) collect() ([]FileJob, error) {
	absRoot, err := filepath.Abs(s.cfg.root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	moduleRoot, err := s.resolveModuleRoot(absRoot)
	if err != nil {
		return nil, err
	}

	var jobs []FileJob
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			// An unreadable entry below the root only loses that entry.
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if s.shouldIgnoreDir(d.Name()) || s.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isPythonFile(d.Name()) || s.excluded(rel) {
			return nil
		}

		if s.cfg.maxBytes > 0 {
			info, err := d.Info()
			if err != nil {
				// Skip files we can't stat
				return nil
			}
			if info.Size() > s.cfg.maxBytes {
				return nil
			}
		}

		jobs = append(jobs, FileJob{
			AbsPath:     path,
			DisplayPath: rel,
			Module:      moduleName(moduleRoot, path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	return jobs, nil
}

// collectSingle returns a single file as a FileJob. A file over the size
// cap yields no job. Stat failures are left for the read to report.
func (s *scanner) collectSingle(filePath string) ([]FileJob, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	moduleRoot, err := s.resolveModuleRoot(filepath.Dir(absPath))
	if err != nil {
		return nil, err
	}

	if s.cfg.maxBytes > 0 {
		if info, err := os.Stat(absPath); err == nil && info.Size() > s.cfg.maxBytes {
			slog.Warn("skipping file over size limit", "path", filePath, "size", info.Size(), "max_bytes", s.cfg.maxBytes)
			return []FileJob{}, nil
		}
	}

	return []FileJob{{
		AbsPath:     absPath,
		DisplayPath: filepath.Base(absPath),
		Module:      moduleName(moduleRoot, absPath),
	}}, nil
}

func (s *scanner) resolveModuleRoot(fallback string) (string, error) {
	if s.cfg.moduleRoot == "" {
		return fallback, nil
	}
	abs, err := filepath.Abs(s.cfg.moduleRoot)
	if err != nil {
		return "", fmt.Errorf("resolve module root: %w", err)
	}
	return abs, nil
}

func (s *scanner) shouldIgnoreDir(name string) bool {
	_, ok := s.cfg.ignoreDirs[name]
	return ok
}

func (s *scanner) excluded(rel string) bool {
	for _, g := range s.cfg.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func isPythonFile(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".py"
}

// moduleName derives a dotted module name from path relative to root.
// "pkg/sub/mod.py" becomes "pkg.sub.mod" and "pkg/__init__.py" becomes
// "pkg". Paths outside root fall back to the file name.
func moduleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		rel = filepath.Base(path)
	}

	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(rel, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
		if len(parts) == 0 {
			return filepath.Base(root)
		}
	}
	return strings.Join(parts, ".")
}
