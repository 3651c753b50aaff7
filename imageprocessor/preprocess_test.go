package imageprocessor

import (
	"testing"

	"trafficsigns/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// newRGBMat builds an 8-bit RGB mat from a per-pixel color function
func newRGBMat(t *testing.T, rows, cols int, px func(r, c int) (byte, byte, byte)) gocv.Mat {
	t.Helper()
	data := make([]byte, 0, rows*cols*3)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			red, green, blue := px(r, c)
			data = append(data, red, green, blue)
		}
	}
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func gradient(r, c int) (byte, byte, byte) {
	return byte((r*7 + c*3) % 256), byte(c * 4 % 256), byte(r * 5 % 256)
}

func roi(x1, y1, x2, y2 int) types.ROI {
	return types.ROI{P1: types.Point{X: x1, Y: y1}, P2: types.Point{X: x2, Y: y2}}
}

func TestPreprocessShapeAndRange(t *testing.T) {
	img := newRGBMat(t, 40, 50, gradient)

	out, err := Preprocess(img, roi(5, 5, 35, 45))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, DefaultTargetWidth, r)
	assert.Equal(t, DefaultTargetHeight, c)
	assert.LessOrEqual(t, mat.Max(out), 0.5)
	assert.GreaterOrEqual(t, mat.Min(out), -0.5)
}

func TestPreprocessCustomSize(t *testing.T) {
	img := newRGBMat(t, 40, 50, gradient)

	p := Preprocessor{TargetWidth: 12, TargetHeight: 30}
	out, err := p.Preprocess(img, roi(0, 0, 40, 50))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 12, r)
	assert.Equal(t, 30, c)
}

func TestPreprocessEnlargesSmallCrop(t *testing.T) {
	img := newRGBMat(t, 40, 50, gradient)

	out, err := Preprocess(img, roi(10, 10, 14, 15))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 20, r)
	assert.Equal(t, 20, c)
}

func TestPreprocessIsDeterministic(t *testing.T) {
	img := newRGBMat(t, 32, 32, gradient)

	first, err := Preprocess(img, roi(2, 3, 30, 29))
	require.NoError(t, err)
	second, err := Preprocess(img, roi(2, 3, 30, 29))
	require.NoError(t, err)

	assert.True(t, mat.Equal(first, second))
}

func TestPreprocessOnlyReadsRedChannel(t *testing.T) {
	a := newRGBMat(t, 30, 30, gradient)
	b := newRGBMat(t, 30, 30, func(r, c int) (byte, byte, byte) {
		red, _, _ := gradient(r, c)
		return red, 200, 17
	})

	outA, err := Preprocess(a, roi(0, 0, 30, 30))
	require.NoError(t, err)
	outB, err := Preprocess(b, roi(0, 0, 30, 30))
	require.NoError(t, err)

	assert.True(t, mat.Equal(outA, outB))
}

func TestPreprocessFirstCoordinateIsRow(t *testing.T) {
	// 30 rows, 60 columns
	img := newRGBMat(t, 30, 60, gradient)

	_, err := Preprocess(img, roi(0, 0, 30, 60))
	require.NoError(t, err)

	_, err = Preprocess(img, roi(0, 0, 60, 30))
	assert.True(t, errors.Is(err, ErrBounds), "got %v", err)
}

func TestPreprocessBoundsErrors(t *testing.T) {
	img := newRGBMat(t, 30, 30, gradient)

	tests := []struct {
		name string
		roi  types.ROI
	}{
		{"negative corner", roi(-1, 0, 10, 10)},
		{"past rows", roi(0, 0, 31, 10)},
		{"past cols", roi(0, 0, 10, 31)},
		{"inverted rows", roi(20, 0, 10, 10)},
		{"inverted cols", roi(0, 20, 10, 10)},
		{"empty", roi(5, 5, 5, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Preprocess(img, tt.roi)
			assert.True(t, errors.Is(err, ErrBounds), "got %v", err)
		})
	}
}

func TestPreprocessShapeErrors(t *testing.T) {
	gray := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err := Preprocess(gray, roi(0, 0, 5, 5))
	assert.True(t, errors.Is(err, ErrShape), "got %v", err)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = Preprocess(empty, roi(0, 0, 5, 5))
	assert.True(t, errors.Is(err, ErrShape), "got %v", err)

	img := newRGBMat(t, 10, 10, gradient)
	_, err = Preprocessor{TargetWidth: 0, TargetHeight: 20}.Preprocess(img, roi(0, 0, 5, 5))
	assert.True(t, errors.Is(err, ErrShape), "got %v", err)
}

func TestPreprocessDoesNotModifyInput(t *testing.T) {
	img := newRGBMat(t, 20, 20, gradient)
	before := img.Clone()
	defer before.Close()

	_, err := Preprocess(img, roi(2, 2, 18, 18))
	require.NoError(t, err)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(img, before, &diff)
	sum := diff.Sum()
	assert.Zero(t, sum.Val1+sum.Val2+sum.Val3)
}
