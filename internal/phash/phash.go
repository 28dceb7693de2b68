// Package phash computes 64-bit DCT perceptual hashes of claim photos.
package phash

import (
	"errors"
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
)

// Size is the number of bits in a fingerprint
const Size = 64

var ErrEmptyImage = errors.New("phash: empty image")

// Fingerprint is a 64-bit perceptual hash; the bit layout follows
// goimagehash's PerceptionHash (top-left 8x8 DCT coefficients vs median).
type Fingerprint uint64

// Compute hashes img. Visually identical images produce identical
// fingerprints regardless of resolution or encoding, since the image is
// resampled to 64x64 grayscale before the DCT.
func Compute(img image.Image) (Fingerprint, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, ErrEmptyImage
	}
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return Fingerprint(h.GetHash()), nil
}

// Distance is the Hamming distance between two fingerprints (0..64)
func (f Fingerprint) Distance(other Fingerprint) int {
	d, err := f.imageHash().Distance(other.imageHash())
	if err != nil {
		// kinds always match here; fall back to a direct popcount
		return bits.OnesCount64(uint64(f) ^ uint64(other))
	}
	return d
}

// Bits expands the fingerprint into a 0/1 vector, most significant bit
// first. L1 distance between two such vectors equals the Hamming distance.
func (f Fingerprint) Bits() []float32 {
	out := make([]float32, Size)
	for i := 0; i < Size; i++ {
		if uint64(f)&(1<<uint(Size-1-i)) != 0 {
			out[i] = 1
		}
	}
	return out
}

// FromBits is the inverse of Bits; values above 0.5 are treated as set
func FromBits(v []float32) (Fingerprint, error) {
	if len(v) != Size {
		return 0, fmt.Errorf("phash: want %d bits, got %d", Size, len(v))
	}
	var f uint64
	for i, b := range v {
		if b > 0.5 {
			f |= 1 << uint(Size-1-i)
		}
	}
	return Fingerprint(f), nil
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse reads the hex form produced by String
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("phash: parse %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

func (f Fingerprint) imageHash() *goimagehash.ImageHash {
	return goimagehash.NewImageHash(uint64(f), goimagehash.PHash)
}
