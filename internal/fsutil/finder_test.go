package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.hcl"))
	touch(t, filepath.Join(root, "nested", "a.json"))
	touch(t, filepath.Join(root, "nested", "skip.txt"))

	files, err := FindFilesByExtension(root, ".hcl", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "a.json"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(root) })
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "graphs")
	touch(t, filepath.Join(dir, "one.hcl"))
	explicit := filepath.Join(root, "graph.conf")
	touch(t, explicit)

	files, err := CollectFiles([]string{dir, explicit, filepath.Join(dir, "one.hcl"), filepath.Join(root, "missing")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "one.hcl"), explicit}, files)
}
