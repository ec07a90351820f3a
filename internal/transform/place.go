package transform

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"image-fitness-pipeline/internal/core"
)

// Placer runs the object placement chain: resample, tint, rotate, composite.
type Placer struct {
	resampler Resampler
	workers   int
	logger    logrus.FieldLogger
}

func NewPlacer(resampler Resampler, workers int, logger logrus.FieldLogger) *Placer {
	return &Placer{
		resampler: resampler,
		workers:   workers,
		logger:    logger,
	}
}

// Placement reports what was actually drawn.
type Placement struct {
	Params  Params      `json:"params"`
	Size    image.Point `json:"size"` // object size after scale and rotation
	OffsetX int         `json:"offset_x"`
	OffsetY int         `json:"offset_y"`
}

// Place draws obj onto dst in place using p. The requested offsets are
// replaced by 0 on any axis where the transformed object does not fit.
func (pl *Placer) Place(dst, obj *image.NRGBA, p Params) (Placement, error) {
	if err := core.ValidateImage(dst); err != nil {
		return Placement{}, fmt.Errorf("destination: %w", err)
	}
	if err := core.ValidateImage(obj); err != nil {
		return Placement{}, fmt.Errorf("object: %w", err)
	}

	pl.logger.WithFields(logrus.Fields{
		"scale": p.Scale,
		"angle": p.Angle,
		"tint":  fmt.Sprintf("#%02x%02x%02x/%d", p.Tint.R, p.Tint.G, p.Tint.B, p.Tint.A),
	}).Debug("TRANSFORM: Placing object")

	scaled, err := pl.resampler.Resample(obj, p.Scale)
	if err != nil {
		return Placement{}, fmt.Errorf("resample: %w", err)
	}

	ApplyTint(scaled, p.Tint, pl.workers)
	rotated, err := pl.resampler.Rotate(scaled, p.Angle)
	if err != nil {
		return Placement{}, fmt.Errorf("rotate: %w", err)
	}

	size := rotated.Bounds().Size()
	offX, offY := FitOffset(size, dst.Bounds().Size(), p.OffsetX, p.OffsetY)

	Composite(dst, rotated, offX, offY, pl.workers)

	pl.logger.WithFields(logrus.Fields{
		"object_size": size.String(),
		"offset_x":    offX,
		"offset_y":    offY,
		"resampler":   pl.resampler.Name(),
	}).Info("TRANSFORM: Object composited")

	return Placement{Params: p, Size: size, OffsetX: offX, OffsetY: offY}, nil
}
