package kmeans

import (
	"encoding/json"
	"math"

	"kmscale/frame"
	"kmscale/mapreduce"
)

// sumSqrTask computes ∑ minᵢ d(row, cᵢ) over every row in a chunk, given the
// current centroid set. It is the normalizing factor Ψ the SamplerTask
// scales its acceptance probability by, and also N*avgWithinSS at reporting
// time.
type sumSqrTask struct {
	Centroids [][]float64
	Std       *Standardizer
	NCats     int
}

func newSumSqrTask(centroids [][]float64, std *Standardizer, ncats int) *sumSqrTask {
	return &sumSqrTask{Centroids: centroids, Std: std, NCats: ncats}
}

func (t *sumSqrTask) Map(c frame.Chunk) (mapreduce.Result, error) {
	numCols := len(t.Centroids[0])
	raw := make([]float64, numCols)
	values := make([]float64, numCols)
	var sqr float64
	for row := 0; row < c.Len(); row++ {
		for col := 0; col < numCols; col++ {
			raw[col] = c.At0(col, row)
		}
		t.Std.DataInto(values, raw)
		_, d := Closest(t.Centroids, values, t.NCats, len(t.Centroids))
		sqr += d
	}
	return sqr, nil
}

func (t *sumSqrTask) Reduce(a, b mapreduce.Result) mapreduce.Result {
	return toFloat(a) + toFloat(b)
}

func (t *sumSqrTask) Zero() mapreduce.Result { return float64(0) }

func toFloat(r mapreduce.Result) float64 {
	switch v := r.(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return math.NaN()
	}
}

// --- WireTask -----------------------------------------------------------

func (t *sumSqrTask) Name() string  { return "sumSqr" }
func (t *sumSqrTask) NumCols() int  { return len(t.Centroids[0]) }

type sumSqrParams struct {
	Centroids [][]float64
	Std       StandardizerSnapshot
	NCats     int
}

func (t *sumSqrTask) EncodeParams() ([]byte, error) {
	return json.Marshal(sumSqrParams{Centroids: t.Centroids, Std: t.Std.Snapshot(), NCats: t.NCats})
}

func (t *sumSqrTask) DecodeResult(data []byte) (mapreduce.Result, error) {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeSumSqrTask is the mapreduce.TaskFactory registered on worker nodes.
func decodeSumSqrTask(params []byte) (mapreduce.Task, error) {
	var p sumSqrParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return newSumSqrTask(p.Centroids, FromSnapshot(p.Std), p.NCats), nil
}
