package kmeans

import (
	"encoding/json"

	"kmscale/frame"
	"kmscale/mapreduce"
)

// lloydsTask performs one Lloyd's-iteration map/reduce pass: every row in a
// chunk is assigned to its nearest centroid, and that assignment feeds a
// running per-cluster mean of the numeric columns, a per-cluster histogram
// of each categorical column's levels, the cluster's accumulated squared
// error, and the row with the single worst assignment error in the chunk
// (used to seed the empty-cluster rescue policy).
type lloydsTask struct {
	Centroids     [][]float64
	Std           *Standardizer
	NCats         int
	Cardinalities []int
}

func newLloydsTask(centroids [][]float64, std *Standardizer, ncats int, cardinalities []int) *lloydsTask {
	return &lloydsTask{Centroids: centroids, Std: std, NCats: ncats, Cardinalities: cardinalities}
}

func (t *lloydsTask) Map(c frame.Chunk) (mapreduce.Result, error) {
	k := len(t.Centroids)
	f := len(t.Centroids[0])
	cs := newClusterState(k, f, t.NCats, t.Cardinalities)

	raw := make([]float64, f)
	values := make([]float64, f)

	for row := 0; row < c.Len(); row++ {
		for col := 0; col < f; col++ {
			raw[col] = c.At0(col, row)
		}
		t.Std.DataInto(values, raw)

		cluster, sqr := Closest(t.Centroids, values, t.NCats, k)

		cs.Rows[cluster]++
		cs.CSqr[cluster] += sqr
		for col := 0; col < t.NCats; col++ {
			cs.Cats[cluster][col][int(values[col])]++
		}
		for col := t.NCats; col < f; col++ {
			cs.CMeans[cluster][col] += values[col]
		}

		if sqr > cs.WorstErr {
			cs.WorstErr = sqr
			cs.WorstRow = c.Start() + int64(row)
		}
	}

	for cluster := 0; cluster < k; cluster++ {
		if cs.Rows[cluster] == 0 {
			continue
		}
		for col := t.NCats; col < f; col++ {
			cs.CMeans[cluster][col] /= float64(cs.Rows[cluster])
		}
	}
	return cs, nil
}

// Reduce combines two ClusterState accumulators. Numeric means are combined
// with the recursive-mean formula so the result stays numerically stable
// regardless of how unevenly the contributing chunks were sized; categorical
// histograms, squared error and row counts are combined elementwise; the
// single worst row is kept from whichever side had the larger error.
func (t *lloydsTask) Reduce(a, b mapreduce.Result) mapreduce.Result {
	ca, cb := a.(*ClusterState), b.(*ClusterState)
	k := len(ca.CMeans)
	f := len(ca.CMeans[0])
	out := newClusterState(k, f, t.NCats, t.Cardinalities)

	for c := 0; c < k; c++ {
		ra, rb := float64(ca.Rows[c]), float64(cb.Rows[c])
		out.Rows[c] = ca.Rows[c] + cb.Rows[c]
		out.CSqr[c] = ca.CSqr[c] + cb.CSqr[c]

		for col := t.NCats; col < f; col++ {
			ma, mb := ca.CMeans[c][col], cb.CMeans[c][col]
			switch {
			case ra+rb == 0:
				out.CMeans[c][col] = 0
			case ra == 0:
				out.CMeans[c][col] = mb
			case rb == 0:
				out.CMeans[c][col] = ma
			default:
				out.CMeans[c][col] = (ma*ra + mb*rb) / (ra + rb)
			}
		}
		for col := 0; col < t.NCats; col++ {
			for lvl := range out.Cats[c][col] {
				out.Cats[c][col][lvl] = ca.Cats[c][col][lvl] + cb.Cats[c][col][lvl]
			}
		}
	}

	out.WorstRow, out.WorstErr = ca.WorstRow, ca.WorstErr
	if cb.WorstErr > out.WorstErr {
		out.WorstRow, out.WorstErr = cb.WorstRow, cb.WorstErr
	}
	return out
}

func (t *lloydsTask) Zero() mapreduce.Result {
	return newClusterState(len(t.Centroids), len(t.Centroids[0]), t.NCats, t.Cardinalities)
}

// finalizeCategoricals replaces each cluster's categorical columns with the
// per-column mode of its histogram, and copies the accumulated numeric means
// into the same row, producing the next round's centroid set.
func finalizeCategoricals(cs *ClusterState, ncats, f int) [][]float64 {
	k := len(cs.CMeans)
	out := make([][]float64, k)
	for c := 0; c < k; c++ {
		out[c] = make([]float64, f)
		for col := 0; col < ncats; col++ {
			best, bestCount := 0, int64(-1)
			for lvl, count := range cs.Cats[c][col] {
				if count > bestCount {
					best, bestCount = lvl, count
				}
			}
			out[c][col] = float64(best)
		}
		copy(out[c][ncats:], cs.CMeans[c][ncats:])
	}
	return out
}

// --- WireTask -----------------------------------------------------------

func (t *lloydsTask) Name() string { return "lloyds" }
func (t *lloydsTask) NumCols() int { return len(t.Centroids[0]) }

type lloydsParams struct {
	Centroids     [][]float64
	Std           StandardizerSnapshot
	NCats         int
	Cardinalities []int
}

func (t *lloydsTask) EncodeParams() ([]byte, error) {
	return json.Marshal(lloydsParams{
		Centroids: t.Centroids, Std: t.Std.Snapshot(), NCats: t.NCats, Cardinalities: t.Cardinalities,
	})
}

func (t *lloydsTask) DecodeResult(data []byte) (mapreduce.Result, error) {
	var cs ClusterState
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

func decodeLloydsTask(params []byte) (mapreduce.Task, error) {
	var p lloydsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return newLloydsTask(p.Centroids, FromSnapshot(p.Std), p.NCats, p.Cardinalities), nil
}
