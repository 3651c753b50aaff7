// Package boundary samples a two-feature classifier over a regular grid so an
// external renderer can draw its decision regions or probability contours.
package boundary

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrShape reports a point matrix or prediction of the wrong size
var ErrShape = errors.New("shape mismatch")

// Predictor classifies each row of an n×2 point matrix
type Predictor interface {
	Predict(points *mat.Dense) ([]float64, error)
}

// ProbabilityPredictor returns one row of class probabilities per point
type ProbabilityPredictor interface {
	PredictProba(points *mat.Dense) (*mat.Dense, error)
}

// GridConfig controls grid sampling
type GridConfig struct {
	// Step is the spacing between grid points on both axes
	Step float64
	// Margin extends the data range on every side
	Margin float64
}

// DefaultGridConfig returns a 0.02 step with a 0.5 margin
func DefaultGridConfig() GridConfig {
	return GridConfig{Step: 0.02, Margin: 0.5}
}

// RenderConfig is handed to whatever draws a Grid
type RenderConfig struct {
	FigureWidth  float64
	FigureHeight float64
}

// DefaultRenderConfig returns a 3x3 inch figure
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{FigureWidth: 3, FigureHeight: 3}
}

// Grid is a sampled surface. Z has len(Ys) rows and len(Xs) columns, so
// Z.At(i, j) is the value at (Xs[j], Ys[i]).
type Grid struct {
	Xs []float64
	Ys []float64
	Z  *mat.Dense
}

// Extent returns the plotting limits of the grid
func (g *Grid) Extent() (xmin, xmax, ymin, ymax float64) {
	return floats.Min(g.Xs), floats.Max(g.Xs), floats.Min(g.Ys), floats.Max(g.Ys)
}

// Points returns every grid point as a row, x varying fastest
func (g *Grid) Points() *mat.Dense {
	pts := mat.NewDense(len(g.Xs)*len(g.Ys), 2, nil)
	for i, y := range g.Ys {
		for j, x := range g.Xs {
			row := i*len(g.Xs) + j
			pts.Set(row, 0, x)
			pts.Set(row, 1, y)
		}
	}
	return pts
}

// NewGrid lays out an empty grid covering the first two columns of X
func NewGrid(X mat.Matrix, cfg GridConfig) (*Grid, error) {
	if cfg.Step <= 0 {
		return nil, errors.Errorf("grid step must be positive, got %v", cfg.Step)
	}
	rows, cols := X.Dims()
	if rows == 0 || cols < 2 {
		return nil, errors.Wrapf(ErrShape, "need at least one point with two features, got %dx%d", rows, cols)
	}

	xcol := mat.Col(nil, 0, X)
	ycol := mat.Col(nil, 1, X)
	xs := arange(floats.Min(xcol)-cfg.Margin, floats.Max(xcol)+cfg.Margin, cfg.Step)
	ys := arange(floats.Min(ycol)-cfg.Margin, floats.Max(ycol)+cfg.Margin, cfg.Step)
	if len(xs) == 0 || len(ys) == 0 {
		return nil, errors.Wrap(ErrShape, "empty grid")
	}
	return &Grid{Xs: xs, Ys: ys}, nil
}

// DecisionGrid samples p.Predict over the grid around X
func DecisionGrid(p Predictor, X mat.Matrix, cfg GridConfig) (*Grid, error) {
	g, err := NewGrid(X, cfg)
	if err != nil {
		return nil, err
	}
	z, err := p.Predict(g.Points())
	if err != nil {
		return nil, errors.WithMessage(err, "predict")
	}
	if len(z) != len(g.Xs)*len(g.Ys) {
		return nil, errors.Wrapf(ErrShape, "predictor returned %d values for %d points", len(z), len(g.Xs)*len(g.Ys))
	}
	g.Z = mat.NewDense(len(g.Ys), len(g.Xs), z)
	return g, nil
}

// ProbabilityGrid samples the probability of the second class over the grid
// around X
func ProbabilityGrid(p ProbabilityPredictor, X mat.Matrix, cfg GridConfig) (*Grid, error) {
	g, err := NewGrid(X, cfg)
	if err != nil {
		return nil, err
	}
	proba, err := p.PredictProba(g.Points())
	if err != nil {
		return nil, errors.WithMessage(err, "predict probabilities")
	}
	n := len(g.Xs) * len(g.Ys)
	if r, c := proba.Dims(); r != n || c < 2 {
		return nil, errors.Wrapf(ErrShape, "predictor returned %dx%d probabilities for %d points", r, c, n)
	}
	g.Z = mat.NewDense(len(g.Ys), len(g.Xs), mat.Col(nil, 1, proba))
	return g, nil
}

// arange returns start, start+step, ... strictly below stop
func arange(start, stop, step float64) []float64 {
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
