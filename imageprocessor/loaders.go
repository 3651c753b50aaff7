package imageprocessor

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return fileExists(path)
		}
	}
	return false
}

// fileExists checks if a file exists and is accessible
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}

// decodeGoImage opens path and decodes it with the given decoder
func decodeGoImage(path string, decode func(f *os.File) (image.Image, error)) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decode(f)
}

// matFromGoImage converts a decoded Go image into an RGB mat
func matFromGoImage(img image.Image, path string) (gocv.Mat, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	// ImageToMatRGB lays out pixels in OpenCV's BGR order
	bgr, err := gocv.ImageToMatRGB(rgba)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("cannot convert %s to mat: %v", path, err)
	}
	defer bgr.Close()

	return bgrToRGB(bgr, path)
}

// bgrToRGB swaps OpenCV's native channel order so that channel 0 is red
func bgrToRGB(bgr gocv.Mat, path string) (gocv.Mat, error) {
	if bgr.Empty() {
		return gocv.NewMat(), newImageLoadError("failed to load image", path)
	}
	rgb := gocv.NewMat()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)
	if rgb.Empty() {
		rgb.Close()
		return gocv.NewMat(), newImageLoadError("failed to convert image to RGB", path)
	}
	return rgb, nil
}
