package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kebisafe/kebisafe/internal/hashid"
	"github.com/kebisafe/kebisafe/internal/media/sniffer"
	"github.com/kebisafe/kebisafe/internal/media/thumbnail"
	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/storage"
)

// MediaStore is the metadata backend the services run against. The Postgres
// repository implements it in production; tests substitute an in-memory
// version with the same insert-if-absent semantics.
type MediaStore interface {
	Insert(ctx context.Context, media models.Media) (bool, error)
	Get(ctx context.Context, hashID string) (models.Media, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Media, error)
	Update(ctx context.Context, hashID string, patch models.MediaPatch) error
	Delete(ctx context.Context, hashID string) error
}

type IngestInput struct {
	Data    []byte
	Comment *string
	Private bool
}

// Ingestor turns an uploaded byte stream into an addressed, deduplicated
// media record.
type Ingestor struct {
	media MediaStore
	blobs storage.BlobStore
	log   zerolog.Logger
}

func NewIngestor(media MediaStore, blobs storage.BlobStore, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		media: media,
		blobs: blobs,
		log:   log,
	}
}

// Ingest runs the pipeline: hash, dedup lookup, decode, thumbnail, blob
// writes, metadata insert. The returned bool reports whether a new record
// was created; re-uploading identical bytes returns the existing record.
//
// Nothing is persisted for undecodable input. A thumbnail failure degrades
// to HasThumbnail=false. The original blob is durably written before the
// metadata insert, so a row always implies its blob.
func (s *Ingestor) Ingest(ctx context.Context, input IngestInput) (models.Media, bool, error) {
	if len(input.Data) == 0 {
		return models.Media{}, false, fmt.Errorf("%w: empty upload", models.ErrDecode)
	}

	hashID := hashid.FromBytes(input.Data)

	existing, err := s.media.Get(ctx, hashID)
	if err == nil {
		s.log.Debug().Str("hash_id", hashID).Msg("duplicate upload, reusing record")
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrMediaNotFound) {
		return models.Media{}, false, fmt.Errorf("dedup lookup: %w", err)
	}

	detected, err := sniffer.Detect(input.Data)
	if err != nil {
		return models.Media{}, false, fmt.Errorf("%w: %v", models.ErrDecode, err)
	}

	img, err := thumbnail.Decode(input.Data, detected.Format)
	if err != nil {
		return models.Media{}, false, fmt.Errorf("%w: %v", models.ErrDecode, err)
	}
	bounds := img.Bounds()

	var thumb []byte
	if derived, err := thumbnail.Derive(img); err != nil {
		s.log.Warn().Err(fmt.Errorf("%w: %v", models.ErrThumbnail, err)).
			Str("hash_id", hashID).Msg("continuing without thumbnail")
	} else {
		thumb = derived
	}

	originalKey := storage.OriginalKey(hashID, detected.Extension)
	if err := s.blobs.Write(ctx, originalKey, input.Data, detected.MIME); err != nil {
		return models.Media{}, false, fmt.Errorf("write original blob: %w", err)
	}

	if thumb != nil {
		if err := s.blobs.Write(ctx, storage.ThumbnailKey(hashID), thumb, "image/jpeg"); err != nil {
			s.log.Warn().Err(err).Str("hash_id", hashID).Msg("thumbnail write failed")
			thumb = nil
		}
	}

	media := models.Media{
		HashID:       hashID,
		Extension:    detected.Extension,
		HasThumbnail: thumb != nil,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Filesize:     int64(len(input.Data)),
		Comment:      input.Comment,
		IsPrivate:    input.Private,
		Uploaded:     time.Now().UTC(),
	}

	created, err := s.media.Insert(ctx, media)
	if err != nil {
		return models.Media{}, false, fmt.Errorf("insert metadata: %w", err)
	}
	if !created {
		// Lost the race against a concurrent identical upload. The blob
		// bytes we wrote are identical to the winner's, so overwriting was
		// harmless; return the winner's row.
		winner, err := s.media.Get(ctx, hashID)
		if err != nil {
			return models.Media{}, false, fmt.Errorf("reread after race: %w", err)
		}
		s.log.Debug().Str("hash_id", hashID).Msg("duplicate upload race, reusing record")
		return winner, false, nil
	}

	s.log.Info().
		Str("hash_id", hashID).
		Str("extension", detected.Extension).
		Int("width", media.Width).
		Int("height", media.Height).
		Int64("filesize", media.Filesize).
		Bool("has_thumbnail", media.HasThumbnail).
		Msg("media ingested")

	return media, true, nil
}
