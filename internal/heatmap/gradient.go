// Package heatmap renders per-pixel RGB differences as false-colour images.
package heatmap

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Gradient maps a normalised magnitude in [0, 1] to a colour.
type Gradient func(t float64) colorful.Color

// Turbo is the polynomial approximation of Google's turbo colormap. Inputs are
// clamped to [0, 1] and every channel is rounded to 8 bits before conversion,
// so Turbo(0) is #23171b and Turbo(1) is #900c00.
func Turbo(t float64) colorful.Color {
	t = math.Max(0, math.Min(1, t))
	r := 34.61 + t*(1172.33-t*(10793.56-t*(33300.12-t*(38394.49-t*14825.05))))
	g := 23.31 + t*(557.33+t*(1225.33-t*(3574.96-t*(1073.77+t*707.56))))
	b := 27.2 + t*(3211.1-t*(15327.97-t*(27814-t*(22569.18-t*6838.66))))
	return colorful.Color{
		R: channel(r),
		G: channel(g),
		B: channel(b),
	}
}

func channel(v float64) float64 {
	return math.Max(0, math.Min(255, math.Round(v))) / 255.0
}

// NRGBA converts a gradient colour to an opaque 8-bit pixel.
func NRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
