package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreWritesOnce(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, err := store.Put(ctx, "contract_1_20250401_100000.pdf", []byte("%PDF-1"))
	require.NoError(t, err)
	assert.Equal(t, "prints/contract_1_20250401_100000.pdf", path)

	_, err = store.Put(ctx, "contract_1_20250401_100000.pdf", []byte("%PDF-2"))
	assert.ErrorIs(t, err, ErrExists)

	content, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1", string(content))
}

func TestFileStoreGet(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "prints/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "../outside.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorePutStripsDirectories(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Put(context.Background(), "../../etc/quotation.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "prints/quotation.pdf", path)

	_, err = NewFileStore("")
	assert.Error(t, err)
}
