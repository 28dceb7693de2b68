// Package quality scores photographs for blur and darkness.
package quality

import (
	"image"
	"image/color"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

// Thresholds below which an image is rejected
type Thresholds struct {
	Blur float64
	Dark float64
}

// DefaultThresholds returns blur 100 and dark 40
func DefaultThresholds() Thresholds {
	return Thresholds{Blur: 100, Dark: 40}
}

// Assess scores img and accepts it only when both metrics meet the
// thresholds. It never fails: a nil, empty or unreadable image yields a
// rejected verdict with zero scores.
func Assess(img image.Image, t Thresholds) (v domain.QualityVerdict) {
	defer func() {
		if r := recover(); r != nil {
			v = domain.QualityVerdict{}
		}
	}()

	gray, ok := Grayscale(img)
	if !ok {
		return domain.QualityVerdict{}
	}

	blur := laplacianVariance(gray)
	brightness := meanIntensity(gray)

	return domain.QualityVerdict{
		Accepted:   blur >= t.Blur && brightness >= t.Dark,
		BlurScore:  blur,
		Brightness: brightness,
	}
}

// Sharpness returns the Laplacian variance of img, or 0 when it cannot be
// computed. Used to pick the representative of a duplicate cluster.
func Sharpness(img image.Image) (s float64) {
	defer func() {
		if r := recover(); r != nil {
			s = 0
		}
	}()

	gray, ok := Grayscale(img)
	if !ok {
		return 0
	}
	return laplacianVariance(gray)
}

// Grayscale converts img to 8-bit luma (ITU-R 601) on a zero-origin grid
func Grayscale(img image.Image) (*image.Gray, bool) {
	if img == nil {
		return nil, false
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, false
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return gray, true
}

// laplacianVariance convolves with the 3x3 kernel [0 1 0; 1 -4 1; 0 1 0]
// (edges replicated) and returns the variance of the response.
func laplacianVariance(g *image.Gray) float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	n := float64(w * h)

	at := func(x, y int) float64 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return float64(g.Pix[y*g.Stride+x])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := at(x, y-1) + at(x-1, y) + at(x+1, y) + at(x, y+1) - 4*at(x, y)
			sum += r
			sumSq += r * r
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

func meanIntensity(g *image.Gray) float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	var sum float64
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, p := range row {
			sum += float64(p)
		}
	}
	return sum / float64(w*h)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
