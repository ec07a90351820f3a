package core

import "errors"

// Error kinds shared by every stage of the pipeline. Callers match them with
// errors.Is; the wrapping message carries the details.
var (
	ErrDecode            = errors.New("image decode failed")
	ErrEncode            = errors.New("image encode failed")
	ErrDimensionMismatch = errors.New("image dimensions do not match")
	ErrNoAssetsFound     = errors.New("no assets found")
	ErrInvalidImage      = errors.New("invalid image")
	ErrInvalidConfig     = errors.New("invalid configuration")
)
