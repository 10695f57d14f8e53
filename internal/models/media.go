package models

import (
	"errors"
	"time"
)

var (
	// ErrDecode marks uploads that are not a supported raster image.
	ErrDecode = errors.New("unsupported or corrupt image")
	// ErrThumbnail marks originals that decode but cannot be resized.
	ErrThumbnail = errors.New("thumbnail derivation failed")
	// ErrMediaNotFound covers both genuinely missing media and private
	// media read by anonymous callers, so existence never leaks.
	ErrMediaNotFound = errors.New("media not found")
	// ErrForbidden marks mutations without a verified owner session or
	// with a missing/invalid anti-forgery token.
	ErrForbidden = errors.New("forbidden")
)

// Media is the single persisted entity: one row per unique upload, keyed by
// the content-derived hash id. Only Comment and IsPrivate are mutable.
type Media struct {
	HashID       string
	Extension    string
	HasThumbnail bool
	Width        int
	Height       int
	Filesize     int64
	Comment      *string
	IsPrivate    bool
	Uploaded     time.Time
}

// OriginalName is the permalink filename of the original blob.
func (m Media) OriginalName() string {
	return m.HashID + "." + m.Extension
}

// ThumbnailName is the permalink filename of the derived thumbnail.
// Thumbnails are always re-encoded as JPEG regardless of the original format.
func (m Media) ThumbnailName() string {
	return m.HashID + ".jpg"
}

// ListFilter narrows media listings. Privacy filtering happens in the store
// query itself, never after the fact.
type ListFilter struct {
	IncludePrivate bool
	Before         *time.Time
	Limit          int
}

// MediaPatch carries the two mutable fields; nil means unchanged.
type MediaPatch struct {
	Comment   *string
	IsPrivate *bool
}
