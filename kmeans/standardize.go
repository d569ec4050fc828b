package kmeans

import (
	"math"

	"kmscale/frame"
)

// Standardizer materializes raw frame rows into the standardized coordinate
// space used throughout training, and reverses that transform for reporting.
// Per-column mean/sigma/cardinality are captured once at construction time
// and never re-derived mid-training.
type Standardizer struct {
	means         []float64
	mults         []float64 // nil when standardize is false
	cardinalities []int
	ncats         int
}

// NewStandardizer derives centering/scaling factors from fr's per-column
// statistics. When standardize is false, mults is left nil and Data performs
// NA imputation only.
func NewStandardizer(fr frame.FrameReader, ncats int, standardize bool) *Standardizer {
	n := fr.NumCols()
	s := &Standardizer{
		means:         make([]float64, n),
		cardinalities: make([]int, n),
		ncats:         ncats,
	}
	for i := 0; i < n; i++ {
		s.means[i] = fr.Mean(i)
		s.cardinalities[i] = fr.Cardinality(i)
	}
	if standardize {
		s.mults = make([]float64, n)
		for i := 0; i < n; i++ {
			sigma := fr.Sigma(i)
			if sigma > 1e-6 {
				s.mults[i] = 1.0 / sigma
			} else {
				s.mults[i] = 1.0
			}
		}
	}
	return s
}

// Data materializes one raw row (length F, categorical columns first, NaN
// for missing values) into the standardized coordinate space.
func (s *Standardizer) Data(raw []float64) []float64 {
	out := make([]float64, len(raw))
	s.DataInto(out, raw)
	return out
}

// DataInto is the allocation-free form of Data, writing into a
// caller-provided buffer of the same length as raw. Map-phase hot loops use
// this to reuse one buffer across every row in a chunk.
func (s *Standardizer) DataInto(out, raw []float64) {
	for i, d := range raw {
		if s.cardinalities[i] == -1 {
			if math.IsNaN(d) {
				d = s.means[i]
			}
			if s.mults != nil {
				d = (d - s.means[i]) * s.mults[i]
			}
		} else {
			if math.IsNaN(d) {
				lvl := math.Round(s.means[i])
				max := float64(s.cardinalities[i] - 1)
				if lvl > max {
					lvl = max
				}
				d = lvl
			}
		}
		out[i] = d
	}
}

// Destandardize reverses the numeric-column transform on a centroid;
// categorical positions are returned unchanged.
func (s *Standardizer) Destandardize(centroid []float64) []float64 {
	out := make([]float64, len(centroid))
	copy(out, centroid)
	if s.mults == nil {
		return out
	}
	for col := s.ncats; col < len(out); col++ {
		out[col] = out[col]/s.mults[col] + s.means[col]
	}
	return out
}

// DestandardizeAll applies Destandardize to a whole set of centroids.
func (s *Standardizer) DestandardizeAll(centroids [][]float64) [][]float64 {
	out := make([][]float64, len(centroids))
	for i, c := range centroids {
		out[i] = s.Destandardize(c)
	}
	return out
}

// StandardizerSnapshot is the exported, JSON-serializable form of a
// Standardizer's derived factors, used to ship a Standardizer's state to an
// RPC worker, which cannot see the live frame.FrameReader it was built from.
type StandardizerSnapshot struct {
	Means         []float64
	Mults         []float64 // nil when standardize is false
	Cardinalities []int
	NCats         int
}

// Snapshot captures s's state for wire transfer.
func (s *Standardizer) Snapshot() StandardizerSnapshot {
	return StandardizerSnapshot{Means: s.means, Mults: s.mults, Cardinalities: s.cardinalities, NCats: s.ncats}
}

// FromSnapshot reconstructs a Standardizer from a previously captured
// StandardizerSnapshot.
func FromSnapshot(snap StandardizerSnapshot) *Standardizer {
	return &Standardizer{means: snap.Means, mults: snap.Mults, cardinalities: snap.Cardinalities, ncats: snap.NCats}
}
