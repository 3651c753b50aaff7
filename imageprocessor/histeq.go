package imageprocessor

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// HistogramBins is the number of uniform bins used for equalization
const HistogramBins = 256

// Equalize remaps the values of ch so that their cumulative distribution
// approximates a linear ramp ending at 255. The histogram spans the data's own
// [min, max] range with the last bin closed on the right. The returned slice is
// the rescaled cumulative histogram. A channel whose range is too narrow to
// split into HistogramBins distinct edges yields ErrShape.
func Equalize(ch *mat.Dense) (*mat.Dense, []float64, error) {
	rows, cols := ch.Dims()
	flat := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		flat = append(flat, ch.RawRowView(i)...)
	}

	lo, hi := floats.Min(flat), floats.Max(flat)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	edges := floats.Span(make([]float64, HistogramBins+1), lo, hi)
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, nil, errors.Wrapf(ErrShape, "value range [%g, %g] too narrow for %d bins", lo, hi, HistogramBins)
		}
	}

	// stat.Histogram wants sorted data and an exclusive upper divider
	sorted := append([]float64(nil), flat...)
	sort.Float64s(sorted)
	dividers := append([]float64(nil), edges...)
	dividers[HistogramBins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	cdf := floats.CumSum(make([]float64, HistogramBins), counts)
	total := cdf[HistogramBins-1]
	for i := range cdf {
		cdf[i] = 255 * cdf[i] / total
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(edges[:HistogramBins], cdf); err != nil {
		return nil, nil, errors.Wrap(err, "fit equalization ramp")
	}

	out := make([]float64, len(flat))
	for i, v := range flat {
		out[i] = pl.Predict(v)
	}
	return mat.NewDense(rows, cols, out), cdf, nil
}

// Normalize centers an equalized channel on 128 and divides by scale
func Normalize(eq *mat.Dense, scale float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return (v - 128) / scale
	}, eq)
	return &out
}
