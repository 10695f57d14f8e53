package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/kebisafe/kebisafe/internal/config"
	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/service"
	"github.com/kebisafe/kebisafe/internal/storage"
)

// Sweeper reclaims orphaned blobs: originals whose metadata insert never
// landed (crash between blob publish and insert, or a blob-delete failure
// during media deletion). A metadata row without its blob is prevented by
// write ordering; the reverse is what this job repairs.
type Sweeper struct {
	cron   *cron.Cron
	blobs  storage.BlobStore
	media  service.MediaStore
	minAge time.Duration
	log    zerolog.Logger
}

func NewSweeper(blobs storage.BlobStore, media service.MediaStore, cfg config.SweepConfig, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		cron:   cron.New(cron.WithSeconds()),
		blobs:  blobs,
		media:  media,
		minAge: cfg.MinAge,
		log:    log,
	}
}

func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish, up to a grace period.
func (s *Sweeper) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("sweeper stop timed out")
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("orphan sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("orphan blobs reclaimed")
	}
}

// Sweep scans the originals namespace and deletes blobs with no metadata
// row. Blobs younger than minAge are skipped: they may belong to an upload
// whose insert has not happened yet.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	infos, err := s.blobs.List(ctx, storage.OriginalPrefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, info := range infos {
		if time.Since(info.ModTime) < s.minAge {
			continue
		}

		name := strings.TrimPrefix(info.Key, storage.OriginalPrefix)
		hashID, _, ok := strings.Cut(name, ".")
		if !ok {
			continue
		}

		_, err := s.media.Get(ctx, hashID)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrMediaNotFound) {
			return removed, err
		}

		if err := s.blobs.Delete(ctx, info.Key); err != nil {
			s.log.Error().Err(err).Str("key", info.Key).Msg("delete orphan blob failed")
			continue
		}
		if err := s.blobs.Delete(ctx, storage.ThumbnailKey(hashID)); err != nil {
			s.log.Error().Err(err).Str("hash_id", hashID).Msg("delete orphan thumbnail failed")
		}
		removed++
	}
	return removed, nil
}
