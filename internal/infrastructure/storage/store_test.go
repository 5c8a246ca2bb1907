package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("chatlog:general", []byte(`[{"type":"message"}]`)))

	value, ok, err := store.Get("chatlog:general")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"type":"message"}]`, string(value))
}

func TestFileStoreSurvivesCacheLoss(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("username", []byte("al")))

	// A fresh store simulates process restart: no cache, disk only.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	value, ok, err := reopened.Get("username")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "al", string(value))
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("username", []byte("al")))
	require.NoError(t, store.Delete("username"))

	_, ok, err := store.Get("username")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete("username"))
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()

	require.NoError(t, store.Set("k", []byte("v")))
	value, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(value))

	require.NoError(t, store.Delete("k"))
	_, ok, _ = store.Get("k")
	assert.False(t, ok)
}
