package sqlitekv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zendo/internal/storage"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zendo.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_SetGetDelete(t *testing.T) {
	s, _ := openTemp(t)

	_, ok, err := s.Get(storage.KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(storage.KeyTasks, `[{"id":"a"}]`))
	require.NoError(t, s.Set(storage.KeyTasks, `[]`))

	v, ok, err := s.Get(storage.KeyTasks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Delete(storage.KeyTasks))
	require.NoError(t, s.Delete(storage.KeyTasks))
	_, ok, err = s.Get(storage.KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Persists(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.Set(storage.KeyUser, `{"id":"1"}`))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(storage.KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"1"}`, v)
}

func TestStore_Lock(t *testing.T) {
	s, _ := openTemp(t)
	unlock, err := s.Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())
}
