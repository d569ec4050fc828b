package kmeans

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSymmetricAndZeroForIdenticalPoints(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 0, 3}
	assert.Equal(t, Distance(a, b, 0), Distance(b, a, 0))
	assert.Equal(t, 0.0, Distance(a, a, 0))
}

func TestDistanceNAScaling(t *testing.T) {
	// S4 — NA handling.
	centroid := []float64{0.0, 0.0}
	point := []float64{1.0, math.NaN()}
	got := Distance(centroid, point, 0)
	assert.InDelta(t, 2.0, got, 1e-12)
}

func TestDistanceCategoricalHamming(t *testing.T) {
	centroid := []float64{1, 5.0}
	point := []float64{0, 5.0}
	got := Distance(centroid, point, 1)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestClosestBreaksTiesByLowestIndex(t *testing.T) {
	centroids := [][]float64{{0, 0}, {0, 0}}
	idx, sqr := Closest(centroids, []float64{0, 0}, 0, 2)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0.0, sqr)
}
