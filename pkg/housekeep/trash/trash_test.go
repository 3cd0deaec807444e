package trash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemove_Permanent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(path, []byte("bye"), 0o644))

	method, err := Remove(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, Deleted, method)
	assert.NoFileExists(t, path)
}

func TestRemove_TrashFallsBackOrTrashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trash-me.txt")
	require.NoError(t, os.WriteFile(path, []byte("bye"), 0o644))

	method, err := Remove(context.Background(), path, true)
	require.NoError(t, err)
	assert.Contains(t, []Method{Trashed, Deleted}, method)
	assert.NoFileExists(t, path)
}

func TestRemove_Nonexistent(t *testing.T) {
	_, err := Remove(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemove_RefusesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keep")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := Remove(context.Background(), dir, false)
	require.Error(t, err)
	assert.DirExists(t, dir)
}

func TestRemove_RelativePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("rel.txt", []byte("x"), 0o644))

	_, err := Remove(context.Background(), "rel.txt", false)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "rel.txt"))
}
