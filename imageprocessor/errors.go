package imageprocessor

import "github.com/pkg/errors"

var (
	// ErrBounds is returned when a region of interest falls outside the image
	// or its corners are inverted
	ErrBounds = errors.New("region of interest out of bounds")

	// ErrShape is returned when the image or the requested output size cannot
	// be processed
	ErrShape = errors.New("invalid image shape")
)
