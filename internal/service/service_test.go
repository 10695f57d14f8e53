package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/storage"
)

// memMediaStore mirrors the Postgres repository's contract, including the
// insert-if-absent arbitration.
type memMediaStore struct {
	mu   sync.Mutex
	rows map[string]models.Media
}

func newMemMediaStore() *memMediaStore {
	return &memMediaStore{rows: make(map[string]models.Media)}
}

func (s *memMediaStore) Insert(_ context.Context, media models.Media) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[media.HashID]; ok {
		return false, nil
	}
	s.rows[media.HashID] = media
	return true, nil
}

func (s *memMediaStore) Get(_ context.Context, hashID string) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	media, ok := s.rows[hashID]
	if !ok {
		return models.Media{}, models.ErrMediaNotFound
	}
	return media, nil
}

func (s *memMediaStore) List(_ context.Context, filter models.ListFilter) ([]models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Media
	for _, media := range s.rows {
		if media.IsPrivate && !filter.IncludePrivate {
			continue
		}
		if filter.Before != nil && !media.Uploaded.Before(*filter.Before) {
			continue
		}
		list = append(list, media)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Uploaded.After(list[j].Uploaded)
	})
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (s *memMediaStore) Update(_ context.Context, hashID string, patch models.MediaPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	media, ok := s.rows[hashID]
	if !ok {
		return models.ErrMediaNotFound
	}
	if patch.Comment != nil {
		media.Comment = patch.Comment
	}
	if patch.IsPrivate != nil {
		media.IsPrivate = *patch.IsPrivate
	}
	s.rows[hashID] = media
	return nil
}

func (s *memMediaStore) Delete(_ context.Context, hashID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[hashID]; !ok {
		return models.ErrMediaNotFound
	}
	delete(s.rows, hashID)
	return nil
}

func (s *memMediaStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// memTokenCache implements security.TokenCache without redis.
type memTokenCache struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]string
}

func newMemTokenCache() *memTokenCache {
	return &memTokenCache{tokens: make(map[string]string)}
}

func (c *memTokenCache) Issue(_ context.Context, sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	token := fmt.Sprintf("token-%d", c.seq)
	c.tokens[sessionID] = token
	return token, nil
}

func (c *memTokenCache) Validate(_ context.Context, sessionID, token string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.tokens[sessionID]
	return ok && token != "" && stored == token, nil
}

// failingBlobStore fails writes under a key prefix; everything else passes
// through.
type failingBlobStore struct {
	storage.BlobStore
	failPrefix string
}

func (s *failingBlobStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	if strings.HasPrefix(key, s.failPrefix) {
		return fmt.Errorf("synthetic write failure for %s", key)
	}
	return s.BlobStore.Write(ctx, key, data, contentType)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 4), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
