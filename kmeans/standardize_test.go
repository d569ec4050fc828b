package kmeans

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/frame"
)

func TestStandardizeDestandardizeRoundTrip(t *testing.T) {
	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{1, 2, 3, 4, 5}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 0, true)
	raw := []float64{3.0}
	standardized := std.Data(raw)
	destandardized := std.Destandardize(standardized)

	assert.InDelta(t, raw[0], destandardized[0], 1e-9)
}

func TestStandardizeImputesCategoricalMeanRoundedAndClamped(t *testing.T) {
	fr, err := frame.New([]string{"c"}, []int{3}, [][]float64{{0, 0, 2, math.NaN()}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 1, false)
	got := std.Data([]float64{math.NaN()})

	// mean of {0,0,2} = 0.667, rounds to 1, clamped to [0,2].
	assert.Equal(t, 1.0, got[0])
}

func TestStandardizeNumericImputesMean(t *testing.T) {
	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{1, 3, math.NaN()}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 0, false)
	got := std.Data([]float64{math.NaN()})

	assert.InDelta(t, 2.0, got[0], 1e-12)
}

func TestStandardizerSnapshotRoundTrip(t *testing.T) {
	fr, err := frame.New([]string{"c", "x"}, []int{2, -1}, [][]float64{{0, 1, 0}, {1, 2, 3}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 1, true)
	restored := FromSnapshot(std.Snapshot())

	row := []float64{1, math.NaN()}
	assert.Equal(t, std.Data(row), restored.Data(row))
}
