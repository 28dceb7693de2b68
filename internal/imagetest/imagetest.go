// Package imagetest generates synthetic photographs for tests.
package imagetest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

// Size is the edge length of generated scenes
const Size = 64

// Scene draws a smooth grayscale landscape chosen by seed, overlaid with a
// one-pixel checker texture of the given amplitude. The texture only
// touches the highest spatial frequencies, so scenes sharing a seed share
// a perceptual hash while their sharpness grows with texture.
//
// texture 0-1 scores below the default blur threshold; 12 or more is sharp.
func Scene(seed int, texture float64) *image.RGBA {
	fx := 0.05 + 0.031*float64(seed%7)
	fy := 0.04 + 0.027*float64((seed*3)%5)
	phase := float64(seed) * 1.3

	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			v := 128 +
				60*math.Sin(fx*float64(x)+phase) +
				40*math.Cos(fy*float64(y)-phase/2) +
				10*math.Sin(0.002*float64(x*y)+phase)
			if (x+y)%2 == 0 {
				v += texture
			} else {
				v -= texture
			}
			g := uint8(math.Max(0, math.Min(255, math.Round(v))))
			img.SetRGBA(x, y, color.RGBA{g, g, g, 255})
		}
	}
	return img
}

// Darken scales every channel by f (0..1)
func Darken(src *image.RGBA, f float64) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	for i := 0; i < len(src.Pix); i += 4 {
		out.Pix[i] = uint8(float64(src.Pix[i]) * f)
		out.Pix[i+1] = uint8(float64(src.Pix[i+1]) * f)
		out.Pix[i+2] = uint8(float64(src.Pix[i+2]) * f)
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// PNG encodes img, panicking on failure
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
