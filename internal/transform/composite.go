package transform

import (
	"image"
	"image/color"
	"math"

	"image-fitness-pipeline/internal/core"
)

// SourceOver applies the Porter-Duff "over" operator to two straight-alpha
// pixels. Colour channels are truncated and alpha is rounded. When both
// pixels are fully transparent the result is the zero pixel.
func SourceOver(src, dst color.NRGBA) color.NRGBA {
	srcA := float64(src.A) / 255.0
	dstA := float64(dst.A) / 255.0
	outA := srcA + dstA*(1-srcA)
	if outA == 0 {
		return color.NRGBA{}
	}

	dstW := dstA * (1 - srcA)
	blend := func(s, d uint8) uint8 {
		return clampTrunc((float64(s)*srcA + float64(d)*dstW) / outA)
	}
	return color.NRGBA{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: clampRound(outA * 255),
	}
}

// Composite draws src over dst with its top-left corner at (offX, offY).
// Source pixels landing outside dst are dropped. Fully transparent source
// pixels leave dst untouched.
func Composite(dst, src *image.NRGBA, offX, offY, workers int) {
	if dst == nil || src == nil {
		return
	}
	db, sb := dst.Bounds(), src.Bounds()

	// Clip the source rows and columns that map inside dst.
	x0, y0 := max(0, -offX), max(0, -offY)
	x1 := min(sb.Dx(), db.Dx()-offX)
	y1 := min(sb.Dy(), db.Dy()-offY)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	core.ParallelRows(y1-y0, workers, func(start, end int) {
		for y := y0 + start; y < y0+end; y++ {
			srow := src.Pix[y*src.Stride:]
			drow := dst.Pix[(y+offY)*dst.Stride:]
			for x := x0; x < x1; x++ {
				si := x * 4
				if srow[si+3] == 0 {
					continue
				}
				di := (x + offX) * 4
				out := SourceOver(
					color.NRGBA{R: srow[si], G: srow[si+1], B: srow[si+2], A: srow[si+3]},
					color.NRGBA{R: drow[di], G: drow[di+1], B: drow[di+2], A: drow[di+3]},
				)
				drow[di], drow[di+1], drow[di+2], drow[di+3] = out.R, out.G, out.B, out.A
			}
		}
	})
}

func clampTrunc(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, v)))
}

// FitOffset keeps a requested offset only when the object is strictly smaller
// than the destination on that axis; otherwise the axis is pinned to 0.
func FitOffset(objSize, dstSize image.Point, offX, offY int) (int, int) {
	if objSize.X >= dstSize.X {
		offX = 0
	}
	if objSize.Y >= dstSize.Y {
		offY = 0
	}
	return offX, offY
}
