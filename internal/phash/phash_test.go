package phash

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/imagetest"
)

// upscale enlarges img by an integer factor with nearest-neighbour sampling
func upscale(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < b.Dy()*factor; y++ {
		for x := 0; x < b.Dx()*factor; x++ {
			out.Set(x, y, img.At(b.Min.X+x/factor, b.Min.Y+y/factor))
		}
	}
	return out
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(imagetest.Scene(1, 12))
	require.NoError(t, err)
	b, err := Compute(imagetest.Scene(1, 12))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 0, a.Distance(b))
}

func TestCompute_ResolutionAndEncodingIndependent(t *testing.T) {
	scene := imagetest.Scene(1, 0)
	orig, err := Compute(scene)
	require.NoError(t, err)

	large, err := Compute(upscale(scene, 3))
	require.NoError(t, err)
	assert.LessOrEqual(t, orig.Distance(large), 6)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, scene, &jpeg.Options{Quality: 85}))
	decoded, err := jpeg.Decode(&buf)
	require.NoError(t, err)

	reencoded, err := Compute(decoded)
	require.NoError(t, err)
	assert.LessOrEqual(t, orig.Distance(reencoded), 6)
}

func TestCompute_DifferentImages(t *testing.T) {
	a, err := Compute(imagetest.Scene(1, 0))
	require.NoError(t, err)
	b, err := Compute(imagetest.Scene(2, 0))
	require.NoError(t, err)

	assert.Greater(t, a.Distance(b), 6)
}

func TestCompute_Empty(t *testing.T) {
	_, err := Compute(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Compute(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestFingerprint_Distance(t *testing.T) {
	assert.Equal(t, 0, Fingerprint(0).Distance(0))
	assert.Equal(t, 64, Fingerprint(0).Distance(^Fingerprint(0)))
	assert.Equal(t, 3, Fingerprint(0b1011).Distance(0b0000))
}

func TestFingerprint_Bits(t *testing.T) {
	f := Fingerprint(0x8000000000000001)
	v := f.Bits()
	require.Len(t, v, Size)
	assert.Equal(t, float32(1), v[0])
	assert.Equal(t, float32(1), v[63])
	assert.Equal(t, float32(0), v[1])

	back, err := FromBits(v)
	require.NoError(t, err)
	assert.Equal(t, f, back)

	_, err = FromBits(v[:10])
	assert.Error(t, err)
}

func TestFingerprint_String(t *testing.T) {
	f := Fingerprint(0xdeadbeef)
	assert.Equal(t, "00000000deadbeef", f.String())

	back, err := Parse(f.String())
	require.NoError(t, err)
	assert.Equal(t, f, back)

	_, err = Parse("zz")
	assert.Error(t, err)
}
