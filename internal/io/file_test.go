package ioutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "mods")
		require.NoError(t, EnsureDir(dir))

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory is fine", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, EnsureDir(dir))
	})

	t.Run("missing parent is an error", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing", "mods")
		assert.Error(t, EnsureDir(dir))
	})

	t.Run("existing file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mods")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		err := EnsureDir(path)
		assert.True(t, errors.Is(err, ErrNotDir), "got %v", err)
	})
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jar")

	ok, err := Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, nil, 0644))
	ok, err = Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTempPath(t *testing.T) {
	dest := filepath.Join("mods", "sodium.jar")
	a, b := TempPath(dest), TempPath(dest)

	assert.NotEqual(t, a, b)
	assert.Equal(t, "mods", filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), ".sodium.jar."))
	assert.True(t, strings.HasSuffix(a, ".part"))
}

func TestAtomicFile_Commit(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "a.jar")

	f, err := CreateAtomic(dest)
	require.NoError(t, err)
	assert.Equal(t, dest, f.Destination())
	_, err = f.WriteString("payload")
	require.NoError(t, err)

	ok, err := Exists(dest)
	require.NoError(t, err)
	assert.False(t, ok, "destination must not exist before commit")

	require.NoError(t, f.Commit())
	require.NoError(t, f.Abort(), "abort after commit is a no-op")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}

func TestAtomicFile_Abort(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "a.jar")

	f, err := CreateAtomic(dest)
	require.NoError(t, err)
	_, err = f.WriteString("partial")
	require.NoError(t, err)
	require.NoError(t, f.Abort())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
