//go:build opencv

package transform

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"image-fitness-pipeline/internal/core"
)

// OpenCVResampler is registered when built with -tags opencv.
const OpenCVResampler = "opencv-lanczos4"

// lanczos4 resamples through OpenCV's 8x8 Lanczos kernel.
type lanczos4 struct{}

func (lanczos4) Name() string { return OpenCVResampler }

func (lanczos4) Resample(src *image.NRGBA, scale float64) (*image.NRGBA, error) {
	if err := core.ValidateImage(src); err != nil {
		return nil, err
	}
	size, err := TargetSize(src.Bounds().Size(), scale)
	if err != nil {
		return nil, err
	}

	mat, err := nrgbaToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	result := gocv.NewMat()
	defer result.Close()

	if err := gocv.Resize(mat, &result, size, 0, 0, gocv.InterpolationLanczos4); err != nil {
		return nil, fmt.Errorf("opencv resize: %w", err)
	}
	if result.Empty() {
		return nil, fmt.Errorf("opencv resize returned an empty matrix")
	}
	return matToNRGBA(result)
}

func (lanczos4) Rotate(src *image.NRGBA, degrees int) (*image.NRGBA, error) {
	var code gocv.RotateFlag
	switch degrees {
	case 90:
		code = gocv.Rotate90Clockwise
	case 180:
		code = gocv.Rotate180Clockwise
	case 270:
		code = gocv.Rotate90CounterClockwise
	default:
		return src, nil
	}

	mat, err := nrgbaToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	result := gocv.NewMat()
	defer result.Close()

	if err := gocv.Rotate(mat, &result, code); err != nil {
		return nil, fmt.Errorf("opencv rotate: %w", err)
	}
	return matToNRGBA(result)
}

// nrgbaToMat copies straight-alpha pixels into a BGRA matrix without
// premultiplying, so every channel is filtered independently.
func nrgbaToMat(src *image.NRGBA) (gocv.Mat, error) {
	b := src.Bounds()
	data := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			data = append(data, row[i+2], row[i+1], row[i], row[i+3])
		}
	}
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("opencv matrix: %w", err)
	}
	return mat, nil
}

func matToNRGBA(mat gocv.Mat) (*image.NRGBA, error) {
	if mat.Channels() != 4 {
		return nil, fmt.Errorf("unexpected channel count: %d", mat.Channels())
	}
	w, h := mat.Cols(), mat.Rows()
	data := mat.ToBytes()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(data) && i+3 < len(out.Pix); i += 4 {
		out.Pix[i] = data[i+2]
		out.Pix[i+1] = data[i+1]
		out.Pix[i+2] = data[i]
		out.Pix[i+3] = data[i+3]
	}
	return out, nil
}

func init() {
	Register(lanczos4{})
}
