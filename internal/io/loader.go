// Image loading and saving functionality
package io

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"image-fitness-pipeline/internal/core"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".gif", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage decodes any supported raster file into a straight-alpha buffer.
func (il *ImageLoader) LoadImage(path string) (*image.NRGBA, error) {
	il.logger.WithField("filepath", path).Debug("LOADER: Loading image")

	if !IsSupportedImageFormat(path) {
		return nil, fmt.Errorf("%w: unsupported image format: %s (supported: %s)",
			core.ErrDecode, path, strings.Join(il.GetSupportedFormats(), ", "))
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDecode, path, err)
	}

	out := core.ToNRGBA(img)
	if err := core.ValidateImage(out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDecode, path, err)
	}

	meta := core.MetadataOf(out, formatOf(path))
	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    meta.Width,
		"height":   meta.Height,
		"format":   meta.Format,
	}).Info("LOADER: Image loaded successfully")

	return out, nil
}

// SavePNG writes img as a PNG file, creating parent directories as needed.
// The file is written next to its destination and renamed into place, so a
// failed write never leaves a truncated image behind.
func (il *ImageLoader) SavePNG(img image.Image, path string) error {
	il.logger.WithField("filepath", path).Debug("LOADER: Saving image")

	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: cannot save empty image", core.ErrEncode)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("%w: output must be .png, got %q", core.ErrEncode, ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", core.ErrEncode, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrEncode, err)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}

	b := img.Bounds()
	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    b.Dx(),
		"height":   b.Dy(),
	}).Info("LOADER: Image saved successfully")

	return nil
}

// IsSupportedImageFormat reports whether path has a decodable extension.
func IsSupportedImageFormat(path string) bool {
	return slices.Contains(supportedFormats, strings.ToLower(filepath.Ext(path)))
}

// GetSupportedFormats names the decodable formats for error messages.
func (il *ImageLoader) GetSupportedFormats() []string {
	return []string{"JPEG", "PNG", "GIF", "TIFF", "BMP"}
}

func formatOf(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
