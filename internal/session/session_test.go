package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"zendo/internal/service"
	"zendo/internal/storage"
	"zendo/internal/storage/filekv"
)

var ann = service.User{ID: "1", Username: "ann", Email: "ann@example.com"}

func TestAuthHeader_Empty(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.AuthHeader())
	assert.False(t, s.LoggedIn())
	_, ok := s.User()
	assert.False(t, ok)
	assert.Nil(t, s.Token())
}

func TestSetCredential_VisibleImmediately(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.SetCredential("abc", ann))

	assert.Equal(t, "Bearer abc", s.AuthHeader())
	u, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, ann, u)

	require.NoError(t, s.SetCredential("def", ann))
	assert.Equal(t, "Bearer def", s.AuthHeader())
}

func TestSetCredential_RejectsEmpty(t *testing.T) {
	s := New(nil)
	assert.ErrorIs(t, s.SetCredential("", ann), ErrEmptyToken)
	assert.False(t, s.LoggedIn())
}

func TestClearCredential_Idempotent(t *testing.T) {
	kv := filekv.New(t.TempDir())
	s := New(kv)
	require.NoError(t, s.SetCredential("abc", ann))

	require.NoError(t, s.ClearCredential())
	require.NoError(t, s.ClearCredential())

	assert.Empty(t, s.AuthHeader())
	_, ok := s.User()
	assert.False(t, ok)

	for _, key := range []string{storage.KeyToken, storage.KeyUser} {
		_, ok, err := kv.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestPersistence_PlainToken(t *testing.T) {
	kv := filekv.New(t.TempDir())
	require.NoError(t, New(kv).SetCredential("abc", ann))

	raw, ok, err := kv.Get(storage.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", raw, "a plain bearer token is stored as the bare string")

	restored := New(kv)
	require.NoError(t, restored.Load())
	assert.Equal(t, "Bearer abc", restored.AuthHeader())
	u, ok := restored.User()
	assert.True(t, ok)
	assert.Equal(t, ann, u)
}

func TestPersistence_OAuthToken(t *testing.T) {
	kv := filekv.New(t.TempDir())
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, New(kv).SetToken(tok, ann))

	restored := New(kv)
	require.NoError(t, restored.Load())
	got := restored.Token()
	require.NotNil(t, got)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))
	assert.Equal(t, "Bearer access", restored.AuthHeader())
}

func TestLoad_NothingPersisted(t *testing.T) {
	s := New(filekv.New(t.TempDir()))
	require.NoError(t, s.Load())
	assert.False(t, s.LoggedIn())
}

func TestLoad_CorruptUserKeepsToken(t *testing.T) {
	kv := filekv.New(t.TempDir())
	require.NoError(t, kv.Set(storage.KeyToken, "abc"))
	require.NoError(t, kv.Set(storage.KeyUser, "{not json"))

	s := New(kv)
	require.NoError(t, s.Load())
	assert.Equal(t, "Bearer abc", s.AuthHeader())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestToken_ReturnsCopy(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.SetCredential("abc", ann))
	s.Token().AccessToken = "mutated"
	assert.Equal(t, "Bearer abc", s.AuthHeader())
}
