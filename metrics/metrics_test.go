package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arjunmahishi/pyscribe/pyscribe"
)

func TestRecorder(t *testing.T) {
	r := New()

	items, err := pyscribe.Parse("import os\ndef a():\n    pass\ndef b():\n    pass\n")
	require.NoError(t, err)

	r.ObserveFile(5*time.Millisecond, pyscribe.Locate(items, "m", "m.py"), nil)
	_, parseErr := pyscribe.Parse("")
	r.ObserveFile(time.Millisecond, nil, parseErr)
	r.ObserveFile(time.Millisecond, nil, errors.New("boom"))

	require.Equal(t, 3.0, testutil.ToFloat64(r.FilesTotal))
	require.Equal(t, 2.0, testutil.ToFloat64(r.Items.WithLabelValues("FunctionDef")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.Items.WithLabelValues("Import")))
	require.Equal(t, 0.0, testutil.ToFloat64(r.Items.WithLabelValues("ClassDef")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.FilesFailed.WithLabelValues("EMPTY_CONTENT")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.FilesFailed.WithLabelValues("UNKNOWN")))
	require.Equal(t, 1, testutil.CollectAndCount(r.ParseDuration))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveFile(time.Millisecond, nil, nil)

	path := filepath.Join(t.TempDir(), "pyscribe.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "pyscribe_files_total 1")
	require.Contains(t, string(data), `pyscribe_items_total{rule="Docstring"} 0`)
}
