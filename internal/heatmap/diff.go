package heatmap

import (
	"image"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"image-fitness-pipeline/internal/core"
)

// MaxDistance is the largest possible Euclidean distance between two 8-bit
// RGB pixels: black to white.
var MaxDistance = 255 * math.Sqrt(3)

// Result is a rendered difference heatmap plus the statistics of the
// distances behind it.
type Result struct {
	Image        *image.NRGBA
	MaxDistance  float64
	MeanDistance float64
}

// Generator computes difference heatmaps between equally sized images.
type Generator struct {
	gradient Gradient
	workers  int
	logger   logrus.FieldLogger
}

// NewGenerator returns a Generator using g, or Turbo when g is nil.
func NewGenerator(g Gradient, workers int, logger logrus.FieldLogger) *Generator {
	if g == nil {
		g = Turbo
	}
	return &Generator{
		gradient: g,
		workers:  workers,
		logger:   logger,
	}
}

// Distance is the Euclidean distance between the RGB channels of two pixels
// stored at p[0:3] and q[0:3]. Alpha is ignored.
func Distance(p, q []uint8) float64 {
	dr := float64(p[0]) - float64(q[0])
	dg := float64(p[1]) - float64(q[1])
	db := float64(p[2]) - float64(q[2])
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Generate renders the difference between a and b. Distances are normalised
// by the maximum over the whole image, so every distance is computed before
// any pixel is coloured. Identical images yield Gradient(0) everywhere.
func (g *Generator) Generate(a, b *image.NRGBA) (*Result, error) {
	if err := core.ValidateImage(a); err != nil {
		return nil, err
	}
	if err := core.ValidateImage(b); err != nil {
		return nil, err
	}
	if err := core.SameSize(a, b); err != nil {
		return nil, err
	}

	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	distances := make([]float64, w*h)

	// Pass 1: distances. ParallelRows returns only after every row is done.
	core.ParallelRows(h, g.workers, func(start, end int) {
		for y := start; y < end; y++ {
			ra := a.Pix[y*a.Stride:]
			rb := b.Pix[y*b.Stride:]
			for x := 0; x < w; x++ {
				distances[y*w+x] = Distance(ra[x*4:x*4+3], rb[x*4:x*4+3])
			}
		}
	})

	maxDiff := floats.Max(distances)
	mean := stat.Mean(distances, nil)

	// Pass 2: normalise against the global maximum and colour.
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	core.ParallelRows(h, g.workers, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Pix[y*out.Stride:]
			for x := 0; x < w; x++ {
				t := 0.0
				if maxDiff > 0 {
					t = distances[y*w+x] / maxDiff
				}
				c := NRGBA(g.gradient(t))
				i := x * 4
				row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
			}
		}
	})

	g.logger.WithFields(logrus.Fields{
		"size":          out.Bounds().Size().String(),
		"max_distance":  maxDiff,
		"mean_distance": mean,
	}).Info("HEATMAP: Difference map generated")

	return &Result{Image: out, MaxDistance: maxDiff, MeanDistance: mean}, nil
}
