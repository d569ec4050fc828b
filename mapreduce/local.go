package mapreduce

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kmscale/frame"
)

// LocalRuntime runs a Task's map phase across an errgroup bounded to
// poolSize concurrent goroutines, then folds the per-chunk results into
// Zero() with Reduce, one after another in chunk order. Reduction order is therefore deterministic for a
// fixed chunk partition, matching the ordering guarantee the core's
// SumSqr/Lloyds passes depend on.
type LocalRuntime struct {
	poolSize int
}

// NewLocalRuntime returns a LocalRuntime bounding map-phase concurrency to
// poolSize goroutines. A poolSize <= 0 means "unbounded."
func NewLocalRuntime(poolSize int) *LocalRuntime {
	return &LocalRuntime{poolSize: poolSize}
}

func (r *LocalRuntime) Run(ctx context.Context, chunks []frame.Chunk, t Task) (Result, error) {
	if len(chunks) == 0 {
		return t.Zero(), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.poolSize > 0 {
		g.SetLimit(r.poolSize)
	}

	partials := make([]Result, len(chunks))
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := t.Map(c)
			if err != nil {
				return err
			}
			partials[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acc := t.Zero()
	for _, p := range partials {
		acc = t.Reduce(acc, p)
	}
	return acc, nil
}
