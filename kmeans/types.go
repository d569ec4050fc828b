package kmeans

import (
	"math"

	"kmscale/model"
)

// Initialization selects how the initial set of centroids is produced
// before the Lloyd loop starts.
type Initialization int

const (
	// InitNone seeds K centroids directly as uniformly-sampled rows and
	// skips the K-Means|| oversampling rounds.
	InitNone Initialization = iota
	// InitPlusPlus runs K-Means|| oversampling followed by a weighted
	// K-Means++ reclustering of the candidate set.
	InitPlusPlus
	// InitFurthest runs K-Means|| oversampling followed by a
	// furthest-point reclustering of the candidate set.
	InitFurthest
)

func (i Initialization) String() string {
	switch i {
	case InitNone:
		return "None"
	case InitPlusPlus:
		return "PlusPlus"
	case InitFurthest:
		return "Furthest"
	default:
		return "Unknown"
	}
}

// TrainingParameters configures a training run. It is immutable for the
// duration of training.
type TrainingParameters struct {
	K         int
	MaxIters  int
	Init      Initialization
	Standardize bool
	Seed      int64

	// ChunkSize is the number of rows per map/reduce chunk. Defaults to
	// 1000 (the teacher's maxLoad) when zero.
	ChunkSize int
	// OversampleRounds is the number of K-Means|| rounds. Defaults to 5
	// when zero.
	OversampleRounds int
	// OversampleFactor scales K to produce the per-round oversampling
	// factor ℓ = OversampleFactor * K. Defaults to 3.0 when zero.
	OversampleFactor float64
	// ConvergenceThreshold is the average per-feature centroid movement
	// below which the Lloyd loop stops. Defaults to 1e-6 when zero.
	ConvergenceThreshold float64
}

// withDefaults returns a copy of p with zero-valued tunables replaced by
// their documented defaults.
func (p TrainingParameters) withDefaults() TrainingParameters {
	if p.ChunkSize == 0 {
		p.ChunkSize = 1000
	}
	if p.OversampleRounds == 0 {
		p.OversampleRounds = 5
	}
	if p.OversampleFactor == 0 {
		p.OversampleFactor = 3.0
	}
	if p.ConvergenceThreshold == 0 {
		p.ConvergenceThreshold = 1e-6
	}
	return p
}

// ClusterState is the mutable scratch accumulated by one LloydsTask map/reduce
// pass: per-cluster sum-vectors, squared-error sums, row counts, categorical
// histograms, and the single worst-fit row seen across the whole frame.
type ClusterState struct {
	CMeans   [][]float64 // [k][F], numeric columns hold running sums/means
	Cats     [][][]int64 // [k][ncats][cardinality_c]
	CSqr     []float64   // [k]
	Rows     []int64     // [k]
	WorstRow int64
	WorstErr float64
}

// newClusterState allocates a zeroed ClusterState sized for k clusters, F
// features, ncats leading categorical columns, and the given per-column
// cardinalities (length ncats).
func newClusterState(k, f, ncats int, cardinalities []int) *ClusterState {
	cs := &ClusterState{
		CMeans: make([][]float64, k),
		Cats:   make([][][]int64, k),
		CSqr:   make([]float64, k),
		Rows:   make([]int64, k),
	}
	for c := 0; c < k; c++ {
		cs.CMeans[c] = make([]float64, f)
		cs.Cats[c] = make([][]int64, ncats)
		for col := 0; col < ncats; col++ {
			cs.Cats[c][col] = make([]int64, cardinalities[col])
		}
	}
	cs.WorstRow = -1
	cs.WorstErr = math.Inf(-1)
	return cs
}

// ModelOutput is an alias for model.Output, kept so the kmeans package's
// own API reads naturally (kmeans.ModelOutput) while the type itself lives
// in package model to avoid an import cycle with modelstore.
type ModelOutput = model.Output
