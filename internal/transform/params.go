package transform

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
)

// Params is one draw of the random placement transform.
type Params struct {
	Scale   float64     `json:"scale"`
	Angle   int         `json:"angle"`
	OffsetX int         `json:"offset_x"`
	OffsetY int         `json:"offset_y"`
	Tint    color.NRGBA `json:"tint"`
}

// ScaleRange bounds the random scale factor, inclusive of Min.
type ScaleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultScaleRange matches the historical 0.25x to 4x placement range.
var DefaultScaleRange = ScaleRange{Min: 0.25, Max: 4.0}

func (r ScaleRange) Validate() error {
	if r.Min <= 0 || r.Max < r.Min {
		return fmt.Errorf("scale range must satisfy 0 < min <= max, got [%g, %g]", r.Min, r.Max)
	}
	return nil
}

// RandomParams draws placement parameters for a destination of size dst.
// Offsets are drawn over the whole destination; Place pins them to 0 on an
// axis the transformed object does not fit in.
func RandomParams(rng *rand.Rand, dst image.Point, scale ScaleRange) Params {
	p := Params{
		Scale: scale.Min + rng.Float64()*(scale.Max-scale.Min),
		Angle: rng.IntN(360),
	}
	if dst.X > 0 {
		p.OffsetX = rng.IntN(dst.X)
	}
	if dst.Y > 0 {
		p.OffsetY = rng.IntN(dst.Y)
	}
	p.Tint = color.NRGBA{
		R: uint8(rng.UintN(256)),
		G: uint8(rng.UintN(256)),
		B: uint8(rng.UintN(256)),
		A: uint8(rng.UintN(256)),
	}
	return p
}
