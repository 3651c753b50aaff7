package database

import (
	"path/filepath"
	"testing"

	"trafficsigns/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInfo(class, track int, filename string, features ...float64) types.SampleInfo {
	return types.SampleInfo{
		Sample: types.Sample{
			Class:    class,
			Track:    track,
			Filename: filename,
			Dims:     types.Dims{Width: 30, Height: 31},
			ROI:      types.ROI{P1: types.Point{X: 5, Y: 6}, P2: types.Point{X: 25, Y: 26}},
			Label:    "5",
		},
		FeatureRows: 1,
		FeatureCols: len(features),
		Features:    features,
	}
}

func TestStoreAndQuerySamples(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, StoreSample(db, sampleInfo(5, 1, "00001_00000.ppm", -0.5, 0.25, 0.4961), false))
	require.NoError(t, StoreSample(db, sampleInfo(5, 1, "00001_00001.ppm", 0.1), false))
	require.NoError(t, StoreSample(db, sampleInfo(7, 0, "00000_00000.ppm", 0.2), false))

	got, err := QuerySamples(db, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "00001_00000.ppm", got[0].Sample.Filename)
	assert.Equal(t, types.Dims{Width: 30, Height: 31}, got[0].Sample.Dims)
	assert.Equal(t, types.Point{X: 25, Y: 26}, got[0].Sample.ROI.P2)
	assert.Equal(t, "5", got[0].Sample.Label)
	assert.Equal(t, []float64{-0.5, 0.25, 0.4961}, got[0].Features)
	assert.NotEmpty(t, got[0].CreatedAt)

	all, err := QuerySamples(db, -1)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStoreSampleForceRewrite(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, StoreSample(db, sampleInfo(1, 0, "00000_00000.ppm", 1), false))
	require.NoError(t, StoreSample(db, sampleInfo(1, 0, "00000_00000.ppm", 2), false))

	got, err := QuerySamples(db, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float64{1}, got[0].Features)

	require.NoError(t, StoreSample(db, sampleInfo(1, 0, "00000_00000.ppm", 3), true))
	got, err = QuerySamples(db, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float64{3}, got[0].Features)

	exists, err := CheckSampleExists(db, 1, "00000_00000.ppm")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = CheckSampleExists(db, 2, "00000_00000.ppm")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetIndexStats(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, name := range []string{"00000_00000.ppm", "00000_00001.ppm", "00001_00000.ppm"} {
		require.NoError(t, StoreSample(db, sampleInfo(3, 0, name, 0), false))
	}
	require.NoError(t, StoreSample(db, sampleInfo(9, 0, "00000_00000.ppm", 0), false))

	stats, err := GetIndexStats(db)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalSamples)
	assert.Equal(t, 2, stats.Classes)
	assert.Equal(t, map[int]int{3: 3, 9: 1}, stats.PerClass)
}

func TestFeatureCodec(t *testing.T) {
	blob, err := EncodeFeatures([]float64{0, -0.5, 0.49609375})
	require.NoError(t, err)
	assert.Len(t, blob, 24)

	back, err := DecodeFeatures(blob)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -0.5, 0.49609375}, back)

	_, err = DecodeFeatures(blob[:5])
	assert.Error(t, err)
}
