package mapreduce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/frame"
)

type countRowsTask struct{}

func (countRowsTask) Map(c frame.Chunk) (Result, error) { return int64(c.Len()), nil }
func (countRowsTask) Reduce(a, b Result) Result         { return a.(int64) + b.(int64) }
func (countRowsTask) Zero() Result                      { return int64(0) }

func TestLocalRuntimeSumsRowCountsAcrossChunks(t *testing.T) {
	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{1, 2, 3, 4, 5, 6, 7}})
	require.NoError(t, err)

	rt := NewLocalRuntime(2)
	res, err := rt.Run(context.Background(), fr.Chunks(3), countRowsTask{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res)
}

func TestLocalRuntimeEmptyChunksReturnsZero(t *testing.T) {
	rt := NewLocalRuntime(2)
	res, err := rt.Run(context.Background(), nil, countRowsTask{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res)
}
