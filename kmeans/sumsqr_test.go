package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/frame"
)

func TestSumSqrTaskTotalsNearestDistances(t *testing.T) {
	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{0, 1, 10, 11}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 0, false)
	centroids := [][]float64{{0}, {10}}
	task := newSumSqrTask(centroids, std, 0)

	total, err := task.Map(fr.Chunks(100)[0])
	require.NoError(t, err)
	// nearest distances: 0,1,0,1 -> sum 2
	assert.InDelta(t, 2.0, total.(float64), 1e-9)
}

func TestSumSqrTaskReduceSumsPartials(t *testing.T) {
	task := &sumSqrTask{}
	assert.Equal(t, 7.0, task.Reduce(3.0, 4.0))
}
