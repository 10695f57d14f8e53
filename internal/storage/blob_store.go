// Package storage persists original and thumbnail blobs on content-derived
// keys.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrBlobNotFound = errors.New("blob not found")

// Key namespaces. Keys are built only from the hash id and the validated
// extension; caller-supplied names never reach the store, so there is no
// path to traverse.
const (
	OriginalPrefix  = "originals/"
	ThumbnailPrefix = "thumbnails/"
)

func OriginalKey(hashID, extension string) string {
	return OriginalPrefix + hashID + "." + extension
}

func ThumbnailKey(hashID string) string {
	return ThumbnailPrefix + hashID + ".jpg"
}

// BlobInfo describes a stored blob for maintenance scans.
type BlobInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// BlobStore is the durable blob backend. Write publishes atomically: a
// concurrent reader sees either nothing or the complete blob, never a
// partial write. Delete of a missing key is not an error.
type BlobStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
