package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := OriginalKey("abc123", "png")

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Write(ctx, key, []byte("payload"), "image/png"))

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestMemoryStoreReadMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Read(context.Background(), ThumbnailKey("missing"))
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestMemoryStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := OriginalKey("abc123", "png")

	require.NoError(t, store.Write(ctx, key, []byte("payload"), "image/png"))
	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreListByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Write(ctx, OriginalKey("one", "png"), []byte("a"), "image/png"))
	require.NoError(t, store.Write(ctx, OriginalKey("two", "jpg"), []byte("bb"), "image/jpeg"))
	require.NoError(t, store.Write(ctx, ThumbnailKey("one"), []byte("ccc"), "image/jpeg"))

	originals, err := store.List(ctx, OriginalPrefix)
	require.NoError(t, err)
	assert.Len(t, originals, 2)

	thumbs, err := store.List(ctx, ThumbnailPrefix)
	require.NoError(t, err)
	require.Len(t, thumbs, 1)
	assert.Equal(t, ThumbnailKey("one"), thumbs[0].Key)
	assert.Equal(t, int64(3), thumbs[0].Size)
}

func TestKeysAreDerivedOnly(t *testing.T) {
	// Keys never embed caller-supplied names; a hostile "extension" is the
	// ingestion pipeline's problem and never reaches here unvalidated.
	assert.Equal(t, "originals/h1.png", OriginalKey("h1", "png"))
	assert.Equal(t, "thumbnails/h1.jpg", ThumbnailKey("h1"))
}
