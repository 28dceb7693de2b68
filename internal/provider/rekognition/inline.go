package rekognition

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/fetch"
)

const (
	// inlineLongEdge is the first long-edge size tried when an image has to
	// be re-encoded to fit the inline limit; each retry halves it.
	inlineLongEdge = 4096
	minLongEdge    = 256
	inlineQuality  = 85
)

// fitInline returns data unchanged when it fits in a DetectLabels request.
// Larger images are downscaled and re-encoded as JPEG until they fit.
func fitInline(ref string, data []byte) ([]byte, bool, error) {
	if len(data) <= maxImageSize {
		return data, false, nil
	}

	img, err := fetch.Decode(ref, data, 0)
	if err != nil {
		return nil, false, fmt.Errorf("%w: image too large (%d bytes) and not re-encodable: %v", ErrInvalidImage, len(data), err)
	}

	for edge := inlineLongEdge; edge >= minLongEdge; edge /= 2 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, scaleToFit(img, edge), &jpeg.Options{Quality: inlineQuality}); err != nil {
			return nil, false, fmt.Errorf("%w: re-encode: %v", ErrInvalidImage, err)
		}
		if buf.Len() <= maxImageSize {
			return buf.Bytes(), true, nil
		}
	}
	return nil, false, fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(data), maxImageSize)
}

// scaleToFit shrinks img so neither side exceeds longEdge, keeping the
// aspect ratio. Smaller images are returned as is.
func scaleToFit(img image.Image, longEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= longEdge && h <= longEdge {
		return img
	}
	if w >= h {
		w, h = longEdge, max(1, h*longEdge/w)
	} else {
		w, h = max(1, w*longEdge/h), longEdge
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
