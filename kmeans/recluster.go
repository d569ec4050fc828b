package kmeans

import "kmscale/rng"

// Recluster reduces the oversampled candidate set produced by the
// Sampler/SumSqr rounds down to exactly K centroids, according to init.
//
// Two behaviors here preserve ambiguities present in the reference
// implementation rather than resolving them toward a "cleaner" design:
//
//   - PlusPlus scans candidates in order and accepts the first one whose
//     weight clears the random threshold, rather than drawing a single
//     weighted sample over the whole candidate set. This biases acceptance
//     toward candidates earlier in the slice. Left as-is: changing it would
//     change which centroids get picked for a given seed, and nothing in
//     the surrounding contract says that bias is a bug rather than a
//     property relied on elsewhere.
//   - Furthest and PlusPlus both operate on whatever order the candidate
//     slice arrives in, which is itself a function of map/reduce chunk
//     order, not row order — also left unresolved rather than sorted.
func Recluster(init Initialization, candidates [][]float64, k, ncats int, gen rng.RNG) [][]float64 {
	res := make([][]float64, k)
	res[0] = candidates[0]
	count := 1

	switch init {
	case InitNone:
		// K centroids are taken directly from the candidate set in order;
		// no reclustering pass runs.
		for count < k && count < len(candidates) {
			res[count] = candidates[count]
			count++
		}
		return res

	case InitPlusPlus:
		for count < k {
			var sum float64
			for _, p := range candidates {
				_, sqr := Closest(res[:count], p, ncats, count)
				sum += sqr
			}
			threshold := gen.Float64() * sum
			for _, p := range candidates {
				_, sqr := Closest(res[:count], p, ncats, count)
				if sqr >= threshold {
					res[count] = p
					count++
					break
				}
			}
		}
		return res

	case InitFurthest:
		for count < k {
			var max float64
			index := 0
			for i, p := range candidates {
				_, sqr := Closest(res[:count], p, ncats, count)
				if sqr > max {
					max = sqr
					index = i
				}
			}
			res[count] = candidates[index]
			count++
		}
		return res

	default:
		return res
	}
}

// RandomRow draws one row index from gen for a frame of numRows rows; the
// caller fetches and standardizes the row itself. It reproduces the
// off-by-one present in the reference row index formula
// max(0, floor(u*n) - 1): row 0 is returned whenever u*n < 2, so it is
// drawn twice as often as any other row, and the very last row is
// unreachable. Left as-is for the same reason as the PlusPlus scan above:
// resolving it would silently change which rows seed a run for a given
// seed and chunk partitioning.
func RandomRow(numRows int, gen rng.RNG) int64 {
	row := int64(gen.Float64()*float64(numRows)) - 1
	if row < 0 {
		row = 0
	}
	return row
}
