// Package sniffer detects the format of uploaded bytes from magic numbers.
// The declared Content-Type is advisory only; the bytes decide.
package sniffer

import (
	"bytes"
	"errors"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
)

var ErrUnknownFormat = errors.New("unknown media format")

type Result struct {
	Format    Format
	MIME      string
	Extension string
}

// Detect identifies one of the supported raster formats from the leading
// bytes of an upload. Anything else fails with ErrUnknownFormat.
func Detect(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrUnknownFormat
	}

	switch {
	case isJPEG(data):
		return Result{Format: FormatJPEG, MIME: "image/jpeg", Extension: "jpg"}, nil
	case isPNG(data):
		return Result{Format: FormatPNG, MIME: "image/png", Extension: "png"}, nil
	case isGIF(data):
		return Result{Format: FormatGIF, MIME: "image/gif", Extension: "gif"}, nil
	case isWEBP(data):
		return Result{Format: FormatWEBP, MIME: "image/webp", Extension: "webp"}, nil
	}

	return Result{}, ErrUnknownFormat
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}
