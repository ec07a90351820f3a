// Core image helpers shared by the transform, heatmap and metrics packages
package core

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Images larger than this on either side are rejected before any pixel loop.
const MaxDimension = 16384

// ImageMetadata contains image information
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Format   string
}

// MetadataOf describes an NRGBA buffer loaded from a file of the given format.
func MetadataOf(img *image.NRGBA, format string) ImageMetadata {
	b := img.Bounds()
	return ImageMetadata{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 4,
		Format:   format,
	}
}

// ValidateImage checks the basic requirements for entering a pixel loop
func ValidateImage(img *image.NRGBA) error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrInvalidImage)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: invalid dimensions: %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}

	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return fmt.Errorf("%w: image too large: %dx%d (max: %d)", ErrInvalidImage, b.Dx(), b.Dy(), MaxDimension)
	}

	return nil
}

// SameSize fails with ErrDimensionMismatch unless a and b have equal dimensions.
func SameSize(a, b *image.NRGBA) error {
	sa, sb := a.Bounds().Size(), b.Bounds().Size()
	if sa != sb {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, sa.X, sa.Y, sb.X, sb.Y)
	}
	return nil
}

// ToNRGBA returns img as a zero-origin, straight-alpha buffer. Buffers that
// already have that shape are returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// Filled returns a w×h image where every pixel is c.
func Filled(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

// Opaque drops the alpha channel of img, keeping its colour channels as they
// are. The result is an RGB image in NRGBA form.
func Opaque(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
