package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebisafe/kebisafe/internal/config"
	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/storage"
)

// getOnlyStore serves Get; the sweeper touches nothing else on the
// metadata side.
type getOnlyStore struct {
	rows map[string]models.Media
}

func (s *getOnlyStore) Insert(context.Context, models.Media) (bool, error) { return false, nil }
func (s *getOnlyStore) List(context.Context, models.ListFilter) ([]models.Media, error) {
	return nil, nil
}
func (s *getOnlyStore) Update(context.Context, string, models.MediaPatch) error { return nil }
func (s *getOnlyStore) Delete(context.Context, string) error                    { return nil }

func (s *getOnlyStore) Get(_ context.Context, hashID string) (models.Media, error) {
	media, ok := s.rows[hashID]
	if !ok {
		return models.Media{}, models.ErrMediaNotFound
	}
	return media, nil
}

func TestSweepRemovesOrphans(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()

	require.NoError(t, blobs.Write(ctx, storage.OriginalKey("kept", "png"), []byte("a"), "image/png"))
	require.NoError(t, blobs.Write(ctx, storage.ThumbnailKey("kept"), []byte("b"), "image/jpeg"))
	require.NoError(t, blobs.Write(ctx, storage.OriginalKey("orphan", "jpg"), []byte("c"), "image/jpeg"))
	require.NoError(t, blobs.Write(ctx, storage.ThumbnailKey("orphan"), []byte("d"), "image/jpeg"))

	store := &getOnlyStore{rows: map[string]models.Media{
		"kept": {HashID: "kept", Extension: "png"},
	}}

	sweeper := NewSweeper(blobs, store, config.SweepConfig{MinAge: 0}, zerolog.Nop())
	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	keptExists, err := blobs.Exists(ctx, storage.OriginalKey("kept", "png"))
	require.NoError(t, err)
	assert.True(t, keptExists)

	orphanExists, err := blobs.Exists(ctx, storage.OriginalKey("orphan", "jpg"))
	require.NoError(t, err)
	assert.False(t, orphanExists)

	orphanThumbExists, err := blobs.Exists(ctx, storage.ThumbnailKey("orphan"))
	require.NoError(t, err)
	assert.False(t, orphanThumbExists)
}

func TestSweepSkipsFreshBlobs(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()

	// Fresh orphan: could be an upload whose metadata insert is in flight.
	require.NoError(t, blobs.Write(ctx, storage.OriginalKey("inflight", "png"), []byte("x"), "image/png"))

	store := &getOnlyStore{rows: map[string]models.Media{}}
	sweeper := NewSweeper(blobs, store, config.SweepConfig{MinAge: time.Hour}, zerolog.Nop())

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	exists, err := blobs.Exists(ctx, storage.OriginalKey("inflight", "png"))
	require.NoError(t, err)
	assert.True(t, exists)
}
