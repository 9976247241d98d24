package filekv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zendo/internal/storage"
)

func TestStore_GetMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "data"))

	v, ok, err := s.Get(storage.KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestStore_SetGetDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := New(dir)

	require.NoError(t, s.Set(storage.KeyToken, "abc"))
	v, ok, err := s.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	info, err := os.Stat(filepath.Join(dir, storage.KeyToken))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Set(storage.KeyToken, "def"))
	v, _, err = s.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Delete(storage.KeyToken))
	require.NoError(t, s.Delete(storage.KeyToken), "delete is idempotent")
	_, ok, err = s.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Set(storage.KeyTasks, "[]"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestStore_InvalidKey(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []string{"", "../escape", "a/b", ".lock"} {
		assert.Error(t, s.Set(key, "x"), key)
	}
}

func TestStore_Closed(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Close())

	_, _, err := s.Get(storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Set(storage.KeyUser, "{}"), storage.ErrClosed)
}

func TestStore_Lock(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested"))
	unlock, err := s.Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())
}
