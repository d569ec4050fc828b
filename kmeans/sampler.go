package kmeans

import (
	"encoding/json"

	"kmscale/frame"
	"kmscale/mapreduce"
	"kmscale/rng"
)

// samplerTask probabilistically emits candidate centroids proportional to
// squared distance from the current centroid set, implementing one round of
// the K-Means|| oversampling scheme. Each chunk uses its own RNG, seeded by
// the training seed plus the chunk's start row id (the Driver passes the
// same seed in every round), so that
// the set of emitted candidates is deterministic for a fixed chunk
// partitioning and seed.
type samplerTask struct {
	Centroids   [][]float64
	Std         *Standardizer
	NCats       int
	Psi         float64 // total squared distance from SumSqrTask
	Probability float64 // oversampling factor ℓ = OversampleFactor * K
	Seed        int64
}

func newSamplerTask(centroids [][]float64, std *Standardizer, ncats int, psi, probability float64, seed int64) *samplerTask {
	return &samplerTask{Centroids: centroids, Std: std, NCats: ncats, Psi: psi, Probability: probability, Seed: seed}
}

func (t *samplerTask) Map(c frame.Chunk) (mapreduce.Result, error) {
	numCols := len(t.Centroids[0])
	raw := make([]float64, numCols)
	values := make([]float64, numCols)

	gen := rng.New(t.Seed + c.Start())

	var sampled [][]float64
	for row := 0; row < c.Len(); row++ {
		for col := 0; col < numCols; col++ {
			raw[col] = c.At0(col, row)
		}
		t.Std.DataInto(values, raw)
		_, sqr := Closest(t.Centroids, values, t.NCats, len(t.Centroids))
		u := gen.Float64()
		if t.Probability*sqr > u*t.Psi {
			sampled = append(sampled, append([]float64(nil), values...))
		}
	}
	return sampled, nil
}

func (t *samplerTask) Reduce(a, b mapreduce.Result) mapreduce.Result {
	return append(toPoints(a), toPoints(b)...)
}

func (t *samplerTask) Zero() mapreduce.Result { return [][]float64(nil) }

func toPoints(r mapreduce.Result) [][]float64 {
	if r == nil {
		return nil
	}
	pts, _ := r.([][]float64)
	return pts
}

// --- WireTask -----------------------------------------------------------

func (t *samplerTask) Name() string { return "sampler" }
func (t *samplerTask) NumCols() int { return len(t.Centroids[0]) }

type samplerParams struct {
	Centroids   [][]float64
	Std         StandardizerSnapshot
	NCats       int
	Psi         float64
	Probability float64
	Seed        int64
}

func (t *samplerTask) EncodeParams() ([]byte, error) {
	return json.Marshal(samplerParams{
		Centroids: t.Centroids, Std: t.Std.Snapshot(), NCats: t.NCats,
		Psi: t.Psi, Probability: t.Probability, Seed: t.Seed,
	})
}

func (t *samplerTask) DecodeResult(data []byte) (mapreduce.Result, error) {
	var pts [][]float64
	if err := json.Unmarshal(data, &pts); err != nil {
		return nil, err
	}
	return pts, nil
}

func decodeSamplerTask(params []byte) (mapreduce.Task, error) {
	var p samplerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return newSamplerTask(p.Centroids, FromSnapshot(p.Std), p.NCats, p.Psi, p.Probability, p.Seed), nil
}
