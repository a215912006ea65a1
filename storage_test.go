package console_test

import (
	"context"
	"testing"

	console "github.com/douremember/go-admin-console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := console.NewMemoryStorage()

	_, ok, err := storage.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Set(ctx, "k", []byte("v1")))

	got, ok, err := storage.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, storage.Set(ctx, "k", []byte("v2")))
	got, _, _ = storage.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, storage.Delete(ctx, "k"))
	_, ok, err = storage.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, storage.Delete(ctx, "k"))
}

func TestMemoryStorageCopiesValues(t *testing.T) {
	ctx := context.Background()
	storage := console.NewMemoryStorage()

	value := []byte("original")
	require.NoError(t, storage.Set(ctx, "k", value))
	value[0] = 'X'

	got, ok, err := storage.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, _, _ := storage.Get(ctx, "k")
	assert.Equal(t, []byte("original"), again)
}
