package metrics

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Amplification scales each pixel's score. Downstream consumers depend on
// this exact magnitude.
const Amplification = 1e14

// maxBrightness is the distance from black to white in 8-bit RGB space.
var maxBrightness = 255 * math.Sqrt(3)

// brightness is the Euclidean distance of a pixel from black.
func brightness(r, g, b uint8) float64 {
	fr, fg, fb := float64(r), float64(g), float64(b)
	return math.Sqrt(fr*fr + fg*fg + fb*fb)
}

// perPixel applies fn to every pixel of img in row-major order.
func perPixel(img *image.NRGBA, fn func(r, g, b uint8) float64) []float64 {
	if img == nil {
		return nil
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	out := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			out = append(out, fn(row[i], row[i+1], row[i+2]))
		}
	}
	return out
}

// Score is the darkness score of a heatmap: the mean over all pixels of
// (255*sqrt(3) - distance from black) * Amplification. Darker heatmaps, i.e.
// smaller differences, score higher. An image without pixels scores 0.
func Score(heatmap *image.NRGBA) float64 {
	values := perPixel(heatmap, func(r, g, b uint8) float64 {
		return (maxBrightness - brightness(r, g, b)) * Amplification
	})
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// DarknessScore is the fitness signal persisted by the pipeline.
type DarknessScore struct{}

func NewDarknessScore() *DarknessScore {
	return &DarknessScore{}
}

func (d *DarknessScore) Calculate(heatmap *image.NRGBA) (float64, error) {
	return Score(heatmap), nil
}

func (d *DarknessScore) GetName() string {
	return "darkness_score"
}

func (d *DarknessScore) GetDescription() string {
	return "Amplified mean closeness of heatmap pixels to black"
}

func (d *DarknessScore) IsHigherBetter() bool {
	return true
}

// MeanIntensity is the mean distance from black, normalised to [0, 1].
type MeanIntensity struct{}

func NewMeanIntensity() *MeanIntensity {
	return &MeanIntensity{}
}

func (m *MeanIntensity) Calculate(heatmap *image.NRGBA) (float64, error) {
	values := perPixel(heatmap, func(r, g, b uint8) float64 {
		return brightness(r, g, b) / maxBrightness
	})
	if len(values) == 0 {
		return 0, nil
	}
	return stat.Mean(values, nil), nil
}

func (m *MeanIntensity) GetName() string {
	return "mean_intensity"
}

func (m *MeanIntensity) GetDescription() string {
	return "Mean normalised distance of heatmap pixels from black"
}

func (m *MeanIntensity) IsHigherBetter() bool {
	return false
}
