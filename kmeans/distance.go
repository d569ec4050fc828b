package kmeans

import "math"

// Distance returns the squared dissimilarity between a centroid and a point
// under the hybrid metric: Hamming (0/1) distance on the leading ncats
// categorical positions, squared Euclidean distance on the remaining numeric
// positions. A NaN component in point is skipped on both sides of the split
// and decrements the valid-dimension count pts; if only some dimensions were
// valid, the accumulated sum is scaled up by F/pts so that rows with
// different NA counts remain comparable.
func Distance(centroid, point []float64, ncats int) float64 {
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

// Closest returns the index of the nearest of the first count centroids to
// point, and the squared distance to it. Ties are broken by lowest index.
func Closest(centroids [][]float64, point []float64, ncats, count int) (int, float64) {
	min := -1
	minSqr := math.MaxFloat64
	for c := 0; c < count; c++ {
		sqr := Distance(centroids[c], point, ncats)
		if sqr < minSqr {
			min = c
			minSqr = sqr
		}
	}
	return min, minSqr
}
