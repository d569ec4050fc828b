package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kmscale/rng"
)

func TestReclusterNoneTakesCandidatesInOrder(t *testing.T) {
	candidates := [][]float64{{1}, {2}, {3}, {4}}
	res := Recluster(InitNone, candidates, 3, 0, rng.New(0))
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, res)
}

func TestReclusterFurthestPicksMaximallyDistantPoints(t *testing.T) {
	candidates := [][]float64{{0}, {1}, {100}}
	res := Recluster(InitFurthest, candidates, 2, 0, rng.New(0))
	assert.Equal(t, []float64{0}, res[0])
	assert.Equal(t, []float64{100}, res[1])
}

// TestReclusterPlusPlusUsesEarlyBreakFirstFitScan locks in the documented
// early-break scan: with a fixed u, res[1] is the *first* candidate in scan
// order whose distance from res[0] clears u*sum, not a weighted sample
// drawn across every qualifying candidate (which could just as validly
// land on either of the two equidistant {5} points or on {10}).
func TestReclusterPlusPlusUsesEarlyBreakFirstFitScan(t *testing.T) {
	candidates := [][]float64{{0}, {5}, {5}, {10}}
	res := Recluster(InitPlusPlus, candidates, 2, 0, fixedRNG(0.1))
	assert.Equal(t, []float64{0}, res[0])
	assert.Equal(t, []float64{5}, res[1])
}

type fixedRNG float64

func (f fixedRNG) Float64() float64     { return float64(f) }
func (fixedRNG) Intn(n int) int         { return 0 }
func (f fixedRNG) Derive(int64) rng.RNG { return f }

type zeroRNG struct{}

func (zeroRNG) Float64() float64          { return 0 }
func (zeroRNG) Intn(n int) int            { return 0 }
func (zeroRNG) Derive(seed int64) rng.RNG { return zeroRNG{} }

func TestRandomRowOffByOneBias(t *testing.T) {
	// u very close to 0 always floors to row -1, clamped to 0.
	assert.Equal(t, int64(0), RandomRow(10, zeroRNG{}))
}
