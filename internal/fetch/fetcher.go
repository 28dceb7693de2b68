// Package fetch retrieves claim photographs from HTTP(S) URLs and S3 and
// decodes them into rasters.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	// registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxBytes caps the size of a single downloaded image
	DefaultMaxBytes int64 = 15 << 20

	// DefaultMaxPixels caps width*height of a decoded image (40 megapixels)
	DefaultMaxPixels int64 = 40_000_000
)

// Fetcher resolves a reference to a decoded image
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

// readLimited reads at most max bytes, failing if the body is larger
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// Decode turns an encoded payload into an image backed by *image.RGBA using
// the registered formats. Dimensions are read from the header first so images above
// maxPixels are rejected before any raster is allocated; maxPixels <= 0
// means DefaultMaxPixels.
func Decode(ref string, data []byte, maxPixels int64) (image.Image, error) {
	if len(data) == 0 {
		return nil, newError(ref, KindDecode, fmt.Errorf("empty body"))
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ref, KindDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, newError(ref, KindDecode, fmt.Errorf("%s image has no pixels", format))
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, newError(ref, KindTooLarge,
			fmt.Errorf("%w: %dx%d %s", ErrTooManyPixels, cfg.Width, cfg.Height, format))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ref, KindDecode, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, newError(ref, KindDecode, fmt.Errorf("%s image has no pixels", format))
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
