// Package mapreduce defines the bulk-synchronous, data-parallel execution
// model the kmeans training core runs its three passes (SumSqr, Sampler,
// Lloyds) through. A Runtime fans a Task out across every chunk of a frame
// and tree-combines the per-chunk results; the core never assumes anything
// about the fan-out mechanism beyond associative reduction.
package mapreduce

import (
	"context"

	"kmscale/frame"
)

// Result is an opaque per-task output value. Concrete tasks box whatever
// they accumulate (a scalar, a ClusterState, a candidate-point list) behind
// this interface so Runtime stays task-agnostic.
type Result interface{}

// Task is one data-parallel pass: Map runs once per chunk, Reduce
// associatively combines two partial results, and Zero supplies the
// identity value reduced chunks start from.
type Task interface {
	Map(c frame.Chunk) (Result, error)
	Reduce(a, b Result) Result
	Zero() Result
}

// Runtime executes a Task over a set of chunks and returns the fully
// tree-reduced Result. Implementations own worker scheduling; Run must
// block until the global reduction completes, matching the phase-barrier
// semantics the Driver relies on.
type Runtime interface {
	Run(ctx context.Context, chunks []frame.Chunk, t Task) (Result, error)
}
