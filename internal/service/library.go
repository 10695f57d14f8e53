package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/security"
	"github.com/kebisafe/kebisafe/internal/storage"
)

// Caller describes the request identity as the route layer resolved it:
// either the anonymous public, or the owner with a live session.
type Caller struct {
	Owner     bool
	SessionID string
	CSRFToken string
}

// Library mediates every read and mutation of stored media. Anonymous
// callers only ever see public media; private media reads answer "not
// found" rather than "forbidden" so their existence never leaks. Mutations
// additionally require a valid anti-forgery token for the owner's session.
type Library struct {
	media  MediaStore
	blobs  storage.BlobStore
	tokens security.TokenCache
	log    zerolog.Logger
}

func NewLibrary(media MediaStore, blobs storage.BlobStore, tokens security.TokenCache, log zerolog.Logger) *Library {
	return &Library{
		media:  media,
		blobs:  blobs,
		tokens: tokens,
		log:    log,
	}
}

// Authorize gates mutating operations: owner session plus matching CSRF
// token, otherwise ErrForbidden.
func (s *Library) Authorize(ctx context.Context, caller Caller) error {
	if !caller.Owner {
		return models.ErrForbidden
	}
	ok, err := s.tokens.Validate(ctx, caller.SessionID, caller.CSRFToken)
	if err != nil {
		return fmt.Errorf("validate csrf token: %w", err)
	}
	if !ok {
		return models.ErrForbidden
	}
	return nil
}

func (s *Library) View(ctx context.Context, caller Caller, hashID string) (models.Media, error) {
	media, err := s.media.Get(ctx, hashID)
	if err != nil {
		return models.Media{}, err
	}
	if media.IsPrivate && !caller.Owner {
		return models.Media{}, models.ErrMediaNotFound
	}
	return media, nil
}

// Original resolves a permalink filename ("<hash>.<ext>") to the original
// blob, subject to the same visibility rules as View.
func (s *Library) Original(ctx context.Context, caller Caller, filename string) ([]byte, models.Media, error) {
	hashID, extension, ok := strings.Cut(filename, ".")
	if !ok {
		return nil, models.Media{}, models.ErrMediaNotFound
	}

	media, err := s.View(ctx, caller, hashID)
	if err != nil {
		return nil, models.Media{}, err
	}
	if media.Extension != extension {
		return nil, models.Media{}, models.ErrMediaNotFound
	}

	data, err := s.blobs.Read(ctx, storage.OriginalKey(hashID, extension))
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			// Row without blob should not happen; report missing rather
			// than leak an internal inconsistency.
			s.log.Error().Str("hash_id", hashID).Msg("metadata row without original blob")
			return nil, models.Media{}, models.ErrMediaNotFound
		}
		return nil, models.Media{}, fmt.Errorf("read original blob: %w", err)
	}
	return data, media, nil
}

// Thumbnail resolves "<hash>.jpg" to the derived thumbnail.
func (s *Library) Thumbnail(ctx context.Context, caller Caller, filename string) ([]byte, models.Media, error) {
	hashID, extension, ok := strings.Cut(filename, ".")
	if !ok || extension != "jpg" {
		return nil, models.Media{}, models.ErrMediaNotFound
	}

	media, err := s.View(ctx, caller, hashID)
	if err != nil {
		return nil, models.Media{}, err
	}
	if !media.HasThumbnail {
		return nil, models.Media{}, models.ErrMediaNotFound
	}

	data, err := s.blobs.Read(ctx, storage.ThumbnailKey(hashID))
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.log.Error().Str("hash_id", hashID).Msg("has_thumbnail set without thumbnail blob")
			return nil, models.Media{}, models.ErrMediaNotFound
		}
		return nil, models.Media{}, fmt.Errorf("read thumbnail blob: %w", err)
	}
	return data, media, nil
}

// List returns the newest media first. Owners see private rows; everyone
// else gets the public filter applied inside the store query.
func (s *Library) List(ctx context.Context, caller Caller, before *time.Time, limit int) ([]models.Media, error) {
	return s.media.List(ctx, models.ListFilter{
		IncludePrivate: caller.Owner,
		Before:         before,
		Limit:          limit,
	})
}

// Update patches comment and privacy. The identity fields of the record
// cannot be touched through this path.
func (s *Library) Update(ctx context.Context, caller Caller, hashID string, patch models.MediaPatch) (models.Media, error) {
	if err := s.Authorize(ctx, caller); err != nil {
		return models.Media{}, err
	}
	if err := s.media.Update(ctx, hashID, patch); err != nil {
		return models.Media{}, err
	}
	return s.media.Get(ctx, hashID)
}

// Delete removes the metadata row first, then both blobs. A blob delete
// failure leaves only orphaned bytes, which the sweeper reclaims; the
// reverse order could leave a row pointing at nothing.
func (s *Library) Delete(ctx context.Context, caller Caller, hashID string) error {
	if err := s.Authorize(ctx, caller); err != nil {
		return err
	}

	media, err := s.media.Get(ctx, hashID)
	if err != nil {
		return err
	}

	if err := s.media.Delete(ctx, hashID); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, storage.OriginalKey(hashID, media.Extension)); err != nil {
		s.log.Error().Err(err).Str("hash_id", hashID).Msg("delete original blob failed")
	}
	if err := s.blobs.Delete(ctx, storage.ThumbnailKey(hashID)); err != nil {
		s.log.Error().Err(err).Str("hash_id", hashID).Msg("delete thumbnail blob failed")
	}

	s.log.Info().Str("hash_id", hashID).Msg("media deleted")
	return nil
}
