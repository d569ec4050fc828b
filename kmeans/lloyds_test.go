package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/frame"
)

func TestLloydsTaskAccumulatesPerClusterStats(t *testing.T) {
	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{0, 1, 10, 11}})
	require.NoError(t, err)

	std := NewStandardizer(fr, 0, false)
	centroids := [][]float64{{0}, {10}}
	task := newLloydsTask(centroids, std, 0, nil)

	res, err := task.Map(fr.Chunks(100)[0])
	require.NoError(t, err)
	cs := res.(*ClusterState)

	assert.Equal(t, []int64{2, 2}, cs.Rows)
	assert.InDelta(t, 0.5, cs.CMeans[0][0], 1e-9)
	assert.InDelta(t, 10.5, cs.CMeans[1][0], 1e-9)
	assert.InDelta(t, 1.0, cs.CSqr[0], 1e-9)
	assert.InDelta(t, 1.0, cs.CSqr[1], 1e-9)
}

func TestLloydsTaskReduceRecursiveMean(t *testing.T) {
	task := &lloydsTask{Centroids: [][]float64{{0}}, NCats: 0, Cardinalities: nil}

	a := &ClusterState{CMeans: [][]float64{{2}}, Cats: [][][]int64{{}}, CSqr: []float64{1}, Rows: []int64{2}, WorstRow: 0, WorstErr: 1}
	b := &ClusterState{CMeans: [][]float64{{8}}, Cats: [][][]int64{{}}, CSqr: []float64{3}, Rows: []int64{2}, WorstRow: 5, WorstErr: 9}

	out := task.Reduce(a, b).(*ClusterState)
	assert.InDelta(t, 5.0, out.CMeans[0][0], 1e-9) // (2*2+8*2)/4
	assert.Equal(t, int64(4), out.Rows[0])
	assert.InDelta(t, 4.0, out.CSqr[0], 1e-9)
	assert.Equal(t, int64(5), out.WorstRow)
	assert.InDelta(t, 9.0, out.WorstErr, 1e-9)
}

func TestFinalizeCategoricalsPicksModeLevel(t *testing.T) {
	cs := &ClusterState{
		CMeans: [][]float64{{0, 7}},
		Cats:   [][][]int64{{{1, 5, 2}}},
		CSqr:   []float64{0},
		Rows:   []int64{8},
	}
	out := finalizeCategoricals(cs, 1, 2)
	assert.Equal(t, 1.0, out[0][0])
	assert.Equal(t, 7.0, out[0][1])
}
