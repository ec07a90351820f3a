// Geometric transforms applied to the object image before compositing
package transform

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"image-fitness-pipeline/internal/core"
)

// DefaultResampler is the backend used when the configuration names none.
const DefaultResampler = "lanczos3"

// Resampler scales and rotates straight-alpha images. Implementations must be
// pure: the source is never modified. Rotate accepts 0, 90, 180 and 270
// degrees clockwise and returns src unchanged for any other angle.
type Resampler interface {
	Name() string
	Resample(src *image.NRGBA, scale float64) (*image.NRGBA, error)
	Rotate(src *image.NRGBA, degrees int) (*image.NRGBA, error)
}

var resamplers = make(map[string]Resampler)

func Register(r Resampler) {
	resamplers[r.Name()] = r
}

// Get looks up a registered resampler. An empty name selects DefaultResampler.
func Get(name string) (Resampler, error) {
	if name == "" {
		name = DefaultResampler
	}
	r, ok := resamplers[name]
	if !ok {
		return nil, fmt.Errorf("resampler not found: %s (available: %v)", name, Available())
	}
	return r, nil
}

// Available lists registered resampler names in sorted order.
func Available() []string {
	names := make([]string, 0, len(resamplers))
	for name := range resamplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetSize returns the scaled dimensions round(w*scale) × round(h*scale),
// never smaller than 1×1.
func TargetSize(size image.Point, scale float64) (image.Point, error) {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return image.Point{}, fmt.Errorf("invalid scale factor: %.3f", scale)
	}

	w := int(math.Round(float64(size.X) * scale))
	h := int(math.Round(float64(size.Y) * scale))
	w, h = max(w, 1), max(h, 1)

	if w > core.MaxDimension || h > core.MaxDimension {
		return image.Point{}, fmt.Errorf("target dimensions too large: %dx%d (max: %d)", w, h, core.MaxDimension)
	}
	return image.Pt(w, h), nil
}

// lanczos3 is the pure Go backend built on imaging's 3-lobe Lanczos filter.
type lanczos3 struct{}

func (lanczos3) Name() string { return DefaultResampler }

func (lanczos3) Resample(src *image.NRGBA, scale float64) (*image.NRGBA, error) {
	if err := core.ValidateImage(src); err != nil {
		return nil, err
	}
	size, err := TargetSize(src.Bounds().Size(), scale)
	if err != nil {
		return nil, err
	}
	if size == src.Bounds().Size() {
		return imaging.Clone(src), nil
	}
	return imaging.Resize(src, size.X, size.Y, imaging.Lanczos), nil
}

// Rotate turns src clockwise. imaging rotates counter-clockwise, hence the
// swapped 90/270 calls.
func (lanczos3) Rotate(src *image.NRGBA, degrees int) (*image.NRGBA, error) {
	switch degrees {
	case 90:
		return imaging.Rotate270(src), nil
	case 180:
		return imaging.Rotate180(src), nil
	case 270:
		return imaging.Rotate90(src), nil
	default:
		return src, nil
	}
}

func init() {
	Register(lanczos3{})
}
