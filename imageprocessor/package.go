// Package imageprocessor decodes dataset images into RGB mats and turns a
// region of interest into a normalized, histogram-equalized feature matrix.
package imageprocessor

import "gocv.io/x/gocv"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads and returns the image as an 8-bit, 3-channel RGB mat
	LoadImage(path string) (gocv.Mat, error)
}
