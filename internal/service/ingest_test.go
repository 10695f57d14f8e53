package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebisafe/kebisafe/internal/hashid"
	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/storage"
)

func TestIngestCreatesMedia(t *testing.T) {
	ctx := context.Background()
	store := newMemMediaStore()
	blobs := storage.NewMemoryStore()
	ingestor := NewIngestor(store, blobs, zerolog.Nop())

	data := pngBytes(t, 100, 50)
	media, created, err := ingestor.Ingest(ctx, IngestInput{Data: data})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Len(t, media.HashID, hashid.Length)
	assert.Equal(t, "png", media.Extension)
	assert.Equal(t, 100, media.Width)
	assert.Equal(t, 50, media.Height)
	assert.Equal(t, int64(len(data)), media.Filesize)
	assert.True(t, media.HasThumbnail)
	assert.False(t, media.IsPrivate)
	assert.False(t, media.Uploaded.IsZero())

	originalExists, err := blobs.Exists(ctx, storage.OriginalKey(media.HashID, "png"))
	require.NoError(t, err)
	assert.True(t, originalExists)

	thumbExists, err := blobs.Exists(ctx, storage.ThumbnailKey(media.HashID))
	require.NoError(t, err)
	assert.True(t, thumbExists)
}

func TestIngestDeduplicatesSequential(t *testing.T) {
	ctx := context.Background()
	store := newMemMediaStore()
	ingestor := NewIngestor(store, storage.NewMemoryStore(), zerolog.Nop())

	data := pngBytes(t, 64, 64)

	first, created, err := ingestor.Ingest(ctx, IngestInput{Data: data})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := ingestor.Ingest(ctx, IngestInput{Data: data})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.HashID, second.HashID)
	assert.Equal(t, 1, store.count())
}

func TestIngestConcurrentDuplicates(t *testing.T) {
	const callers = 8

	ctx := context.Background()
	store := newMemMediaStore()
	ingestor := NewIngestor(store, storage.NewMemoryStore(), zerolog.Nop())
	data := pngBytes(t, 400, 300)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		hashes  []string
		errs    []error
		creates int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			media, created, err := ingestor.Ingest(ctx, IngestInput{Data: data})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			hashes = append(hashes, media.HashID)
			if created {
				creates++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)

	require.Len(t, hashes, callers)
	for _, h := range hashes {
		assert.Equal(t, hashes[0], h)
	}
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, store.count())
}

func TestIngestRejectsUnknownFormat(t *testing.T) {
	ctx := context.Background()
	store := newMemMediaStore()
	blobs := storage.NewMemoryStore()
	ingestor := NewIngestor(store, blobs, zerolog.Nop())

	_, _, err := ingestor.Ingest(ctx, IngestInput{Data: []byte("definitely not an image")})
	require.ErrorIs(t, err, models.ErrDecode)

	assert.Equal(t, 0, store.count())
	assert.Equal(t, 0, blobs.Len())
}

func TestIngestRejectsCorruptImage(t *testing.T) {
	ctx := context.Background()
	store := newMemMediaStore()
	blobs := storage.NewMemoryStore()
	ingestor := NewIngestor(store, blobs, zerolog.Nop())

	// Valid PNG magic, garbage body: sniffs fine, fails to decode.
	corrupt := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("garbage")...)
	_, _, err := ingestor.Ingest(ctx, IngestInput{Data: corrupt})
	require.ErrorIs(t, err, models.ErrDecode)

	assert.Equal(t, 0, store.count())
	assert.Equal(t, 0, blobs.Len())
}

func TestIngestRejectsEmptyUpload(t *testing.T) {
	ingestor := NewIngestor(newMemMediaStore(), storage.NewMemoryStore(), zerolog.Nop())

	_, _, err := ingestor.Ingest(context.Background(), IngestInput{})
	assert.ErrorIs(t, err, models.ErrDecode)
}

func TestIngestThumbnailFailureNonFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemMediaStore()
	blobs := storage.NewMemoryStore()
	ingestor := NewIngestor(store, &failingBlobStore{
		BlobStore:  blobs,
		failPrefix: storage.ThumbnailPrefix,
	}, zerolog.Nop())

	media, created, err := ingestor.Ingest(ctx, IngestInput{Data: pngBytes(t, 500, 500)})
	require.NoError(t, err)

	assert.True(t, created)
	assert.False(t, media.HasThumbnail)

	originalExists, err := blobs.Exists(ctx, storage.OriginalKey(media.HashID, "png"))
	require.NoError(t, err)
	assert.True(t, originalExists)
}

func TestIngestCarriesCommentAndPrivacy(t *testing.T) {
	ctx := context.Background()
	ingestor := NewIngestor(newMemMediaStore(), storage.NewMemoryStore(), zerolog.Nop())

	comment := "holiday shot"
	media, _, err := ingestor.Ingest(ctx, IngestInput{
		Data:    pngBytes(t, 32, 32),
		Comment: &comment,
		Private: true,
	})
	require.NoError(t, err)

	require.NotNil(t, media.Comment)
	assert.Equal(t, "holiday shot", *media.Comment)
	assert.True(t, media.IsPrivate)
}
