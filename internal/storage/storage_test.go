package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apet97/worklens/internal/storage"
)

func TestPutGetRoundTrip(t *testing.T) {
	kv, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Put("ws1", "overrides", []byte(`{"u1":{"mode":"global"}}`)))

	got, err := kv.Get("ws1", "overrides")
	require.NoError(t, err)
	assert.JSONEq(t, `{"u1":{"mode":"global"}}`, string(got))
}

func TestGetMissing(t *testing.T) {
	kv, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get("ws1", "overrides")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Key missing inside an existing bucket.
	require.NoError(t, kv.Put("ws1", "config", []byte("{}")))
	got, err = kv.Get("ws1", "overrides")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorkspaceNamespacing(t *testing.T) {
	kv, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Put("ws1", "overrides", []byte("a")))
	require.NoError(t, kv.Put("ws2", "overrides", []byte("b")))

	got, err := kv.Get("ws1", "overrides")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
	got, err = kv.Get("ws2", "overrides")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	kv, err := storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put("ws1", "overrides", []byte("persisted")))
	require.NoError(t, kv.Close())

	kv, err = storage.Open(path)
	require.NoError(t, err)
	defer kv.Close()
	got, err := kv.Get("ws1", "overrides")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
