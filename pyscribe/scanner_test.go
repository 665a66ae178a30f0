package pyscribe

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleName(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "project")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"top_level", "mod.py", "mod"},
		{"nested", "pkg/sub/mod.py", "pkg.sub.mod"},
		{"package_init", "pkg/__init__.py", "pkg"},
		{"nested_package_init", "pkg/sub/__init__.py", "pkg.sub"},
		{"root_init", "__init__.py", "project"},
		{"outside_root", "../elsewhere/tool.py", "tool"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(root, filepath.FromSlash(tc.path))
			require.Equal(t, tc.want, moduleName(root, path))
		})
	}
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestScannerCollect(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"app/__init__.py":           "",
		"app/models.py":             "class User:\n    pass\n",
		"app/migrations/0001.py":    "import os\n",
		"app/tests/test_models.py":  "def test_user():\n    pass\n",
		"app/README.md":             "# readme\n",
		"scripts/big.py":            "x = '" + string(make([]byte, 64)) + "'\n",
		".venv/lib/site.py":         "import site\n",
		"app/__pycache__/models.py": "stale\n",
	})

	exclude, err := compileGlobs([]string{"app/migrations", "**/test_*.py"})
	require.NoError(t, err)

	sc := newScanner(scannerConfig{
		root:     tmpDir,
		exclude:  exclude,
		maxBytes: 32,
	})
	files, err := sc.collect()
	require.NoError(t, err)

	got := map[string]string{}
	for _, f := range files {
		got[f.DisplayPath] = f.Module
	}
	require.Equal(t, map[string]string{
		"app/__init__.py": "app",
		"app/models.py":   "app.models",
	}, got)
}

func TestScannerModuleRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"src/pkg/core.py": "def run():\n    pass\n",
	})

	sc := newScanner(scannerConfig{
		root:       filepath.Join(tmpDir, "src", "pkg"),
		moduleRoot: filepath.Join(tmpDir, "src"),
	})
	files, err := sc.collect()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "core.py", files[0].DisplayPath)
	require.Equal(t, "pkg.core", files[0].Module)

	single, err := newScanner(scannerConfig{}).collectSingle(filepath.Join(tmpDir, "src", "pkg", "core.py"))
	require.NoError(t, err)
	require.Len(t, single, 1)
	require.Equal(t, "core.py", single[0].DisplayPath)
	require.Equal(t, "core", single[0].Module)
}

func TestScannerCollectSingleMaxBytes(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"small.py": "x = 1\n",
		"big.py":   "x = '" + strings.Repeat("a", 64) + "'\n",
	})

	sc := newScanner(scannerConfig{maxBytes: 32})

	files, err := sc.collectSingle(filepath.Join(tmpDir, "big.py"))
	require.NoError(t, err)
	require.Empty(t, files)

	files, err = sc.collectSingle(filepath.Join(tmpDir, "small.py"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	// Missing files still produce a job so the read reports them.
	files, err = sc.collectSingle(filepath.Join(tmpDir, "missing.py"))
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestScannerCollectSkipsUnreadableDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}

	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"pkg/good.py":   "def ok():\n    pass\n",
		"locked/mod.py": "def hidden():\n    pass\n",
	})
	locked := filepath.Join(tmpDir, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := newScanner(scannerConfig{root: tmpDir}).collect()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "pkg/good.py", files[0].DisplayPath)
}

func TestScannerCollectMissingRoot(t *testing.T) {
	_, err := newScanner(scannerConfig{root: filepath.Join(t.TempDir(), "nope")}).collect()
	require.Error(t, err)
}

func TestCompileGlobsInvalid(t *testing.T) {
	_, err := compileGlobs([]string{"[unclosed"})
	require.Error(t, err)

	globs, err := compileGlobs([]string{"", "  "})
	require.NoError(t, err)
	require.Empty(t, globs)
}
