package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageOpenAndDelete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "premium"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "premium", "go.pdf"), []byte("%PDF"), 0o644))

	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	file, err := store.Open("premium/go.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "%PDF", string(body))

	require.NoError(t, store.Delete("premium/go.pdf"))
	require.NoError(t, store.Delete("premium/go.pdf"))
	_, err = store.Open("premium/go.pdf")
	assert.Error(t, err)
}

func TestLocalStorageStaysInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Open("../secret.txt")
	assert.Error(t, err)
}
