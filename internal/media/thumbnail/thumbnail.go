// Package thumbnail decodes validated uploads and derives bounded preview
// images from them.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/kebisafe/kebisafe/internal/media/sniffer"
)

// Thumbnails fit inside a 320x180 box, preserving aspect ratio, and are
// always re-encoded as JPEG.
const (
	MaxWidth  = 320
	MaxHeight = 180

	jpegQuality = 85
)

// Decode turns sniffed upload bytes into pixels. Animated GIFs decode to
// their first frame. The input slice is never modified.
func Decode(data []byte, format sniffer.Format) (image.Image, error) {
	r := bytes.NewReader(data)

	switch format {
	case sniffer.FormatJPEG:
		return jpeg.Decode(r)
	case sniffer.FormatPNG:
		return png.Decode(r)
	case sniffer.FormatGIF:
		return gif.Decode(r)
	case sniffer.FormatWEBP:
		return webp.Decode(r)
	}
	return nil, fmt.Errorf("no decoder for format %q", format)
}

// Derive produces the thumbnail JPEG for a decoded original. Originals that
// already fit the box are re-encoded without scaling, so every successfully
// decoded upload gets a thumbnail.
func Derive(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("degenerate image %dx%d", width, height)
	}

	target := img
	if width > MaxWidth || height > MaxHeight {
		outW, outH := fitBox(width, height)
		scaled := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		target = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, target, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// fitBox scales (width, height) down to fit MaxWidth x MaxHeight keeping
// the aspect ratio. Inputs are known to exceed the box in some dimension.
func fitBox(width, height int) (int, int) {
	outW := MaxWidth
	outH := height * MaxWidth / width
	if outH > MaxHeight {
		outH = MaxHeight
		outW = width * MaxHeight / height
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}
