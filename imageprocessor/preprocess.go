package imageprocessor

import (
	"image"

	"trafficsigns/types"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultTargetWidth and DefaultTargetHeight are the feature matrix size
	DefaultTargetWidth  = 20
	DefaultTargetHeight = 20

	// NormalizeScale divides the centered, equalized channel
	NormalizeScale = 256.0

	// minChannels is the channel count a sample must have to select red from
	minChannels = 3

	// redChannel is the index of red in the RGB layout produced by the loaders
	redChannel = 0
)

// Preprocessor turns a region of interest into a feature matrix with
// TargetWidth rows and TargetHeight columns.
type Preprocessor struct {
	TargetWidth  int
	TargetHeight int
}

// NewPreprocessor returns a preprocessor producing 20x20 features
func NewPreprocessor() Preprocessor {
	return Preprocessor{
		TargetWidth:  DefaultTargetWidth,
		TargetHeight: DefaultTargetHeight,
	}
}

// Preprocess runs the default 20x20 preprocessor
func Preprocess(img gocv.Mat, roi types.ROI) (*mat.Dense, error) {
	return NewPreprocessor().Preprocess(img, roi)
}

// Preprocess returns the normalized, equalized red channel of the region of
// interest. img must be in RGB channel order and is not modified.
func (p Preprocessor) Preprocess(img gocv.Mat, roi types.ROI) (*mat.Dense, error) {
	red, err := p.redChannel(img, roi)
	if err != nil {
		return nil, err
	}

	eq, _, err := Equalize(red)
	if err != nil {
		return nil, err
	}
	return Normalize(eq, NormalizeScale), nil
}

// redChannel crops, rescales and extracts the red channel as float64 in [0, 1]
func (p Preprocessor) redChannel(img gocv.Mat, roi types.ROI) (*mat.Dense, error) {
	if err := p.validate(img, roi); err != nil {
		return nil, err
	}

	cropped := cropRegion(img, roi)
	defer cropped.Close()

	scaled := p.scale(cropped)
	defer scaled.Close()

	return channelToDense(scaled, redChannel), nil
}

// validate checks the image shape, the output size and the ROI bounds
func (p Preprocessor) validate(img gocv.Mat, roi types.ROI) error {
	if p.TargetWidth <= 0 || p.TargetHeight <= 0 {
		return errors.Wrapf(ErrShape, "target size %dx%d", p.TargetWidth, p.TargetHeight)
	}
	if img.Empty() {
		return errors.Wrap(ErrShape, "image is empty")
	}
	if c := img.Channels(); c < minChannels {
		return errors.Wrapf(ErrShape, "image has %d channels, need at least %d", c, minChannels)
	}

	rows, cols := img.Rows(), img.Cols()
	r0, c0, r1, c1 := roi.P1.X, roi.P1.Y, roi.P2.X, roi.P2.Y
	if r0 < 0 || c0 < 0 || r1 > rows || c1 > cols {
		return errors.Wrapf(ErrBounds, "roi ((%d,%d),(%d,%d)) outside %dx%d image",
			r0, c0, r1, c1, rows, cols)
	}
	if r0 >= r1 || c0 >= c1 {
		return errors.Wrapf(ErrBounds, "roi ((%d,%d),(%d,%d)) is inverted or empty", r0, c0, r1, c1)
	}
	return nil
}

// cropRegion returns a view of img covering rows [P1.X, P2.X) and columns
// [P1.Y, P2.Y). The caller must close it.
func cropRegion(img gocv.Mat, roi types.ROI) gocv.Mat {
	// image.Rectangle is (column, row)
	return img.Region(image.Rect(roi.P1.Y, roi.P1.X, roi.P2.Y, roi.P2.X))
}

// scale converts to float64 in [0, 1] and resizes to the target size. Area
// averaging smooths when shrinking, bilinear when enlarging.
func (p Preprocessor) scale(cropped gocv.Mat) gocv.Mat {
	unit := gocv.NewMat()
	defer unit.Close()
	cropped.ConvertToWithParams(&unit, gocv.MatTypeCV64F, 1.0/255.0, 0)

	interpolation := gocv.InterpolationLinear
	if cropped.Rows() >= p.TargetWidth && cropped.Cols() >= p.TargetHeight {
		interpolation = gocv.InterpolationArea
	}

	scaled := gocv.NewMat()
	gocv.Resize(unit, &scaled, image.Point{X: p.TargetHeight, Y: p.TargetWidth}, 0, 0, interpolation)
	return scaled
}

// channelToDense copies one channel of a float64 mat into a gonum matrix
func channelToDense(m gocv.Mat, channel int) *mat.Dense {
	planes := gocv.Split(m)
	defer func() {
		for _, plane := range planes {
			plane.Close()
		}
	}()

	plane := planes[channel]
	rows, cols := plane.Rows(), plane.Cols()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, plane.GetDoubleAt(r, c))
		}
	}
	return out
}
