package transform

import (
	"image"
	"image/color"
	"math"

	"image-fitness-pipeline/internal/core"
)

// ApplyTint blends tint into the colour channels of img in place, weighted by
// the tint's own alpha. The image's alpha channel is left untouched.
func ApplyTint(img *image.NRGBA, tint color.NRGBA, workers int) {
	if tint.A == 0 || img == nil {
		return
	}

	a := float64(tint.A) / 255.0
	tr, tg, tb := float64(tint.R), float64(tint.G), float64(tint.B)

	// 8-bit lookup per channel: every output depends only on the input byte.
	var lut [3][256]uint8
	for v := range 256 {
		keep := float64(v) * (1 - a)
		lut[0][v] = clampRound(keep + tr*a)
		lut[1][v] = clampRound(keep + tg*a)
		lut[2][v] = clampRound(keep + tb*a)
	}

	b := img.Bounds()
	rowBytes := b.Dx() * 4
	core.ParallelRows(b.Dy(), workers, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
			for i := 0; i < len(row); i += 4 {
				row[i] = lut[0][row[i]]
				row[i+1] = lut[1][row[i+1]]
				row[i+2] = lut[2][row[i+2]]
			}
		}
	})
}

func clampRound(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
