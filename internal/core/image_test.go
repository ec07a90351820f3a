package core

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	require.NoError(t, ValidateImage(Filled(3, 2, color.NRGBA{A: 255})))

	err := ValidateImage(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)

	err = ValidateImage(image.NewNRGBA(image.Rect(0, 0, 0, 5)))
	assert.ErrorIs(t, err, ErrInvalidImage)

	err = ValidateImage(image.NewNRGBA(image.Rect(0, 0, MaxDimension+1, 1)))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestSameSize(t *testing.T) {
	a := Filled(4, 3, color.NRGBA{})
	require.NoError(t, SameSize(a, Filled(4, 3, color.NRGBA{R: 1})))

	err := SameSize(a, Filled(3, 4, color.NRGBA{}))
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "4x3 vs 3x4")
}

func TestToNRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(5, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(0, 0))

	same := Filled(1, 1, color.NRGBA{})
	assert.Same(t, same, ToNRGBA(same))
}

func TestOpaque_KeepsColourDropsAlpha(t *testing.T) {
	src := Filled(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 0})
	out := Opaque(src)

	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, out.NRGBAAt(1, 1))
	assert.Equal(t, uint8(0), src.Pix[3], "source must not be modified")
}

func TestParallelRows_CoversEveryRowOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8, 100} {
		const height = 37
		var hits [height]atomic.Int32

		ParallelRows(height, workers, func(start, end int) {
			for y := start; y < end; y++ {
				hits[y].Add(1)
			}
		})

		for y := range hits {
			assert.Equal(t, int32(1), hits[y].Load(), "workers=%d row=%d", workers, y)
		}
	}
}

func TestParallelRows_EmptyHeight(t *testing.T) {
	called := false
	ParallelRows(0, 4, func(int, int) { called = true })
	assert.False(t, called)
}
