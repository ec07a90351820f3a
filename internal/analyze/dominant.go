// Package analyze finds the dominant colour of an image.
package analyze

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"image-fitness-pipeline/internal/core"
)

type Method int

const (
	// MethodExact counts exact 8-bit RGB values.
	MethodExact Method = iota
	// MethodDominantColor uses the heaviest dominantcolor candidate.
	MethodDominantColor
	// MethodKMeans uses the centre of the most populated k-means cluster.
	MethodKMeans
)

func (m Method) String() string {
	switch m {
	case MethodDominantColor:
		return "dominantcolor"
	case MethodKMeans:
		return "kmeans"
	default:
		return "exact"
	}
}

// ParseMethod accepts the names produced by Method.String.
func ParseMethod(s string) (Method, error) {
	for _, m := range []Method{MethodExact, MethodDominantColor, MethodKMeans} {
		if m.String() == s {
			return m, nil
		}
	}
	return MethodExact, fmt.Errorf("unknown analysis method %q", s)
}

// DominantColor returns the most used colour of img. Alpha is ignored and the
// result is opaque.
func DominantColor(img *image.NRGBA, method Method) (color.NRGBA, error) {
	if err := core.ValidateImage(img); err != nil {
		return color.NRGBA{}, err
	}
	switch method {
	case MethodDominantColor:
		return viaDominantColor(img), nil
	case MethodKMeans:
		return viaKMeans(img)
	default:
		return mostFrequent(img), nil
	}
}

// FillDominant returns an image of the same size as img filled with its
// dominant colour.
func FillDominant(img *image.NRGBA, method Method) (*image.NRGBA, color.NRGBA, error) {
	c, err := DominantColor(img, method)
	if err != nil {
		return nil, color.NRGBA{}, err
	}
	b := img.Bounds()
	return core.Filled(b.Dx(), b.Dy(), c), c, nil
}

// mostFrequent counts every RGB triple. Ties go to the smallest packed
// 0xRRGGBB value so the answer does not depend on map iteration order.
func mostFrequent(img *image.NRGBA) color.NRGBA {
	counts := make(map[uint32]int)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			counts[uint32(row[i])<<16|uint32(row[i+1])<<8|uint32(row[i+2])]++
		}
	}

	var best uint32
	bestCount := -1
	for rgb, n := range counts {
		if n > bestCount || (n == bestCount && rgb < best) {
			best, bestCount = rgb, n
		}
	}
	return color.NRGBA{R: uint8(best >> 16), G: uint8(best >> 8), B: uint8(best), A: 0xff}
}

func viaDominantColor(img *image.NRGBA) color.NRGBA {
	candidates := dominantcolor.FindWeight(core.Opaque(img), 8)
	if len(candidates) == 0 {
		return mostFrequent(img)
	}
	best := slices.MaxFunc(candidates, func(a, b dominantcolor.Color) int {
		switch {
		case a.Weight < b.Weight:
			return -1
		case a.Weight > b.Weight:
			return 1
		}
		return 0
	})
	c := best.RGBA
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// maxSamples bounds the k-means input on large images.
const maxSamples = 12000

func viaKMeans(img *image.NRGBA) (color.NRGBA, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	step := 1
	for (w/step)*(h/step) > maxSamples {
		step++
	}

	dataset := make(clusters.Observations, 0, min(w*h, maxSamples))
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			c := img.NRGBAAt(x, y)
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}

	k := min(5, len(dataset))
	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("kmeans: %w", err)
	}

	biggest := slices.MaxFunc(cc, func(a, b clusters.Cluster) int {
		return len(a.Observations) - len(b.Observations)
	})
	center := colorful.Color{R: biggest.Center[0], G: biggest.Center[1], B: biggest.Center[2]}
	r, g, b := center.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
