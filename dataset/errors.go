package dataset

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a path the dataset layout requires does
	// not exist
	ErrNotFound = errors.New("not found")

	// ErrFormat is returned for malformed annotation rows and undecodable images
	ErrFormat = errors.New("malformed dataset entry")

	// ErrMissingKey is returned when the track filter has no entry for a
	// requested class
	ErrMissingKey = errors.New("no track filter for class")
)
