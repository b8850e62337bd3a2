package invalidlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale.root\n"), 0o644))

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Record("a.root"))
	require.NoError(t, w.Record("b.root"))
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.root\nb.root\n", string(data))
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "invalid.txt"))
	assert.Error(t, err)
}
