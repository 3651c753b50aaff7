package imageprocessor

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// levels builds a 4x4 channel holding four intensity levels, four pixels each
func levels(values ...float64) *mat.Dense {
	data := make([]float64, 0, 16)
	for _, v := range values {
		for i := 0; i < 16/len(values); i++ {
			data = append(data, v)
		}
	}
	return mat.NewDense(4, 4, data)
}

func TestEqualizeMapsLevelsToCumulativeShares(t *testing.T) {
	eq, cdf, err := Equalize(levels(0, 85, 170, 255))
	require.NoError(t, err)

	require.Len(t, cdf, HistogramBins)
	assert.Equal(t, 255.0, cdf[HistogramBins-1])

	want := []float64{63.75, 127.5, 191.25, 255}
	for i, w := range want {
		// four pixels per level, row i holds level i
		for c := 0; c < 4; c++ {
			assert.InDelta(t, w, eq.At(i, c), 1e-9, "row %d col %d", i, c)
		}
	}
}

func TestEqualizeIsIdempotentOnEqualizedChannel(t *testing.T) {
	once, _, err := Equalize(levels(0, 85, 170, 255))
	require.NoError(t, err)
	twice, _, err := Equalize(once)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(once, twice, 1e-9))
}

func TestEqualizeKeepsShape(t *testing.T) {
	ch := mat.NewDense(3, 5, []float64{
		0.1, 0.2, 0.3, 0.4, 0.5,
		0.5, 0.4, 0.3, 0.2, 0.1,
		0.9, 0.8, 0.7, 0.6, 0.0,
	})
	eq, _, err := Equalize(ch)
	require.NoError(t, err)

	r, c := eq.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 5, c)
	// the maximum always lands on the top of the ramp
	assert.Equal(t, 255.0, eq.At(2, 0))
	assert.Equal(t, 0.1, ch.At(0, 0), "input must not be modified")
}

func TestEqualizeConstantChannel(t *testing.T) {
	ch := mat.NewDense(2, 2, []float64{0.4, 0.4, 0.4, 0.4})

	eq, cdf, err := Equalize(ch)
	require.NoError(t, err)

	assert.Equal(t, 255.0, cdf[HistogramBins-1])
	first := eq.At(0, 0)
	assert.Equal(t, first, eq.At(1, 1))
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 255.0)
}

func TestNormalizeRoundTrip(t *testing.T) {
	eq, _, err := Equalize(levels(0, 85, 170, 255))
	require.NoError(t, err)
	norm := Normalize(eq, NormalizeScale)

	var back mat.Dense
	back.Apply(func(_, _ int, v float64) float64 { return v*NormalizeScale + 128 }, norm)

	assert.True(t, mat.EqualApprox(eq, &back, 1e-9))
	assert.InDelta(t, (255.0-128)/256, norm.At(3, 0), 1e-12)
}

func TestEqualizeRejectsRangeNarrowerThanBins(t *testing.T) {
	v := 0.5
	tests := []struct {
		name string
		data []float64
	}{
		{"one ulp", []float64{v, v, math.Nextafter(v, 1), v}},
		{"tiny range", []float64{v, v + 1e-14, v, v}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var eq *mat.Dense
			var err error
			assert.NotPanics(t, func() {
				eq, _, err = Equalize(mat.NewDense(2, 2, tt.data))
			})
			assert.Nil(t, eq)
			assert.True(t, errors.Is(err, ErrShape), "got %v", err)
		})
	}
}
