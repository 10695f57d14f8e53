package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name      string
		head      []byte
		format    Format
		extension string
	}{
		{
			name:      "png",
			head:      []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0},
			format:    FormatPNG,
			extension: "png",
		},
		{
			name:      "jpeg",
			head:      []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
			format:    FormatJPEG,
			extension: "jpg",
		},
		{
			name:      "gif89a",
			head:      []byte("GIF89a\x01\x00\x01\x00"),
			format:    FormatGIF,
			extension: "gif",
		},
		{
			name:      "gif87a",
			head:      []byte("GIF87a\x01\x00\x01\x00"),
			format:    FormatGIF,
			extension: "gif",
		},
		{
			name:      "webp",
			head:      append([]byte("RIFF\x24\x00\x00\x00"), []byte("WEBPVP8 ")...),
			format:    FormatWEBP,
			extension: "webp",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Detect(tc.head)
			require.NoError(t, err)
			assert.Equal(t, tc.format, result.Format)
			assert.Equal(t, tc.extension, result.Extension)
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	for _, head := range [][]byte{
		nil,
		[]byte{},
		[]byte("plain text, definitely not an image"),
		[]byte{0x00, 0x01, 0x02, 0x03},
		[]byte("<svg xmlns=\"http://www.w3.org/2000/svg\"/>"),
	} {
		_, err := Detect(head)
		assert.ErrorIs(t, err, ErrUnknownFormat)
	}
}
