// Package model defines the trained-model value type shared between the
// kmeans training core and the external model store / reporting
// collaborators, kept separate from package kmeans so that those
// collaborators can depend on the model shape without importing the
// trainer itself.
package model

import "math"

// Output is the result of a (possibly still-running) training job:
// destandardized centroids, column names, rows-per-cluster, within-cluster
// MSE, and the aggregate sum-of-squares breakdown.
type Output struct {
	Names        []string
	Clusters     [][]float64 // destandardized centroids, [k][F]
	Rows         []int64
	WithinMSE    []float64
	TotalAvgSS   float64
	AvgWithinSS  float64
	AvgBetweenSS float64
	Iterations   int
	NCats        int
}

// Closest returns the index of the nearest centroid to point under the
// hybrid distance metric, and the squared distance to it.
func (m *Output) Closest(point []float64) (int, float64) {
	min := -1
	minSqr := math.MaxFloat64
	for c, centroid := range m.Clusters {
		sqr := hybridDistance(centroid, point, m.NCats)
		if sqr < minSqr {
			min = c
			minSqr = sqr
		}
	}
	return min, minSqr
}

// hybridDistance duplicates kmeans.Distance's metric locally so that
// package model has no dependency on package kmeans (which itself depends
// on model.Output); the training core always uses kmeans.Distance
// directly and this copy exists solely to let a trained Output score new
// points without re-importing the trainer.
func hybridDistance(centroid, point []float64, ncats int) float64 {
	var sqr float64
	pts := len(point)

	for col := 0; col < ncats; col++ {
		d := point[col]
		if math.IsNaN(d) {
			pts--
		} else if d != centroid[col] {
			sqr += 1.0
		}
	}
	for col := ncats; col < len(centroid); col++ {
		d := point[col]
		if math.IsNaN(d) {
			pts--
		} else {
			delta := d - centroid[col]
			sqr += delta * delta
		}
	}
	if pts > 0 && pts < len(point) {
		sqr *= float64(len(point)) / float64(pts)
	}
	return sqr
}
