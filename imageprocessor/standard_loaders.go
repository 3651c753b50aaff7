package imageprocessor

import (
	"fmt"
	"image"
	"os"

	"trafficsigns/logging"

	"github.com/lmittmann/ppm"
	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"
)

// StandardImageLoader handles formats OpenCV decodes directly
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatBMP,
				FormatPPM,
			},
		},
	}
}

// LoadImage loads a standard image format
func (l *StandardImageLoader) LoadImage(path string) (gocv.Mat, error) {
	if !fileExists(path) {
		return gocv.NewMat(), fmt.Errorf("image %s: %w", path, os.ErrNotExist)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()

	return bgrToRGB(img, path)
}

// PPMImageLoader decodes the binary PPM files the dataset ships with in pure Go
type PPMImageLoader struct {
	BaseImageLoader
}

// NewPPMImageLoader creates a new PPM loader
func NewPPMImageLoader() *PPMImageLoader {
	return &PPMImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatPPM},
		},
	}
}

// LoadImage decodes a PPM image
func (l *PPMImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img, err := decodeGoImage(path, func(f *os.File) (image.Image, error) {
		return ppm.Decode(f)
	})
	if err != nil {
		if os.IsNotExist(err) {
			return gocv.NewMat(), fmt.Errorf("image %s: %w", path, os.ErrNotExist)
		}
		return gocv.NewMat(), fmt.Errorf("failed to decode PPM image %s: %v", path, err)
	}
	return matFromGoImage(img, path)
}

// TiffImageLoader specializes in TIFF format loading
type TiffImageLoader struct {
	BaseImageLoader
}

// NewTiffImageLoader creates a new TIFF image loader
func NewTiffImageLoader() *TiffImageLoader {
	return &TiffImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatTIFF},
		},
	}
}

// LoadImage decodes TIFF in Go first and falls back to OpenCV for variants
// the Go decoder does not handle
func (l *TiffImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img, err := decodeGoImage(path, func(f *os.File) (image.Image, error) {
		return tiff.Decode(f)
	})
	if err == nil {
		return matFromGoImage(img, path)
	}
	if os.IsNotExist(err) {
		return gocv.NewMat(), fmt.Errorf("image %s: %w", path, os.ErrNotExist)
	}

	logging.LogWarning("Go TIFF decoder failed for %s (%v), trying OpenCV", path, err)
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return gocv.NewMat(), newImageLoadError("failed to load TIFF image", path)
	}
	return bgrToRGB(mat, path)
}
