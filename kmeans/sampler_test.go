package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/frame"
)

func TestSamplerTaskDeterministicForFixedSeedAndChunk(t *testing.T) {
	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 0, false)
	centroids := [][]float64{{0}}
	chunk := fr.Chunks(100)[0]

	run := func() [][]float64 {
		task := newSamplerTask(centroids, std, 0, 100.0, 3.0, 17)
		res, err := task.Map(chunk)
		require.NoError(t, err)
		return res.([][]float64)
	}

	a, b := run(), run()
	assert.Equal(t, a, b)
}

func TestSamplerTaskReduceConcatenates(t *testing.T) {
	task := &samplerTask{}
	out := task.Reduce([][]float64{{1}}, [][]float64{{2}, {3}}).([][]float64)
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, out)
}
