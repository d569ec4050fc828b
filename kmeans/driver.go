package kmeans

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kmscale/frame"
	"kmscale/job"
	"kmscale/logging"
	"kmscale/mapreduce"
	"kmscale/model"
	"kmscale/modelstore"
	"kmscale/rng"
)

const maxK = 10_000_000
const maxIters = 1_000_000

// modelKey is the modelstore key Train publishes snapshots under. Train
// owns exactly one key for the lifetime of a single call.
const modelKey = "training"

// Train is the single entry point of the training core. It validates
// parameters, standardizes the frame, runs K-Means|| initialization (unless
// Init is InitNone) followed by the Lloyd convergence loop with
// empty-cluster rescue, and returns the final published model.
//
// Train blocks for the duration of training; callers that want to poll
// progress or cancel mid-run do so through jb from another goroutine while
// this call is in flight.
func Train(ctx context.Context, p TrainingParameters, fr frame.FrameReader, rt mapreduce.Runtime, rg rng.RNG, jb job.Job, ms modelstore.Store, lg logging.Logger) (*ModelOutput, error) {
	p = p.withDefaults()
	if err := validateParams(p, fr); err != nil {
		return nil, err
	}

	if err := ms.Lock(modelKey); err != nil {
		return nil, &RuntimeFailure{Phase: "lock", Err: err}
	}
	defer ms.Unlock(modelKey)

	var result *ModelOutput
	var trainErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				trainErr = &RuntimeFailure{Phase: "train", Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, trainErr = train(ctx, p, fr, rt, rg, jb, ms, lg)
	}()

	if trainErr != nil {
		jb.Cancel(trainErr)
		return result, trainErr
	}
	return result, nil
}

func validateParams(p TrainingParameters, fr frame.FrameReader) error {
	if p.K < 1 || p.K > maxK {
		return &ValidationError{Field: "K", Message: "must be in [1, 1e7]"}
	}
	if p.MaxIters < 1 || p.MaxIters > maxIters {
		return &ValidationError{Field: "MaxIters", Message: "must be in [1, 1e6]"}
	}
	if fr.NumRows() < p.K {
		return &ValidationError{Field: "K", Message: "K must not exceed the number of rows"}
	}
	switch p.Init {
	case InitNone, InitPlusPlus, InitFurthest:
	default:
		return &ValidationError{Field: "Init", Message: "unknown initialization option"}
	}
	return nil
}

func train(ctx context.Context, p TrainingParameters, fr frame.FrameReader, rt mapreduce.Runtime, rg rng.RNG, jb job.Job, ms modelstore.Store, lg logging.Logger) (*ModelOutput, error) {
	ncats := permuteCategoricalFirst(fr)
	f := fr.NumCols()
	numRows := fr.NumRows()

	cardinalities := make([]int, ncats)
	for i := 0; i < ncats; i++ {
		cardinalities[i] = fr.Cardinality(i)
	}

	std := NewStandardizer(fr, ncats, p.Standardize)

	var centroids [][]float64
	if p.Init == InitNone {
		centroids = make([][]float64, p.K)
		for i := 0; i < p.K; i++ {
			row := RandomRow(numRows, rg)
			centroids[i] = std.Data(fr.Row(row))
		}
	} else {
		var err error
		centroids, err = initCandidates(ctx, p, fr, std, ncats, rt, rg, jb, ms, lg)
		if err != nil {
			return nil, err
		}
	}

	return lloydLoop(ctx, p, fr, std, ncats, cardinalities, f, numRows, centroids, rt, jb, ms, lg)
}

// permuteCategoricalFirst swaps fr's columns in place so that every
// categorical column (cardinality >= 0) comes before the first numeric one,
// and returns the resulting count of categorical columns. Categorical
// columns keep their relative order; numeric columns may be reordered.
func permuteCategoricalFirst(fr frame.FrameReader) int {
	next := 0
	for i := 0; i < fr.NumCols(); i++ {
		if fr.Cardinality(i) >= 0 {
			if i != next {
				fr.Swap(i, next)
			}
			next++
		}
	}
	return next
}

// initCandidates runs the K-Means|| oversampling rounds and the subsequent
// reclustering pass, returning exactly K initial centroids.
func initCandidates(ctx context.Context, p TrainingParameters, fr frame.FrameReader, std *Standardizer, ncats int, rt mapreduce.Runtime, rg rng.RNG, jb job.Job, ms modelstore.Store, lg logging.Logger) ([][]float64, error) {
	chunks := fr.Chunks(p.ChunkSize)
	numRows := fr.NumRows()

	seed := std.Data(fr.Row(RandomRow(numRows, rg)))
	candidates := [][]float64{seed}

	ell := p.OversampleFactor * float64(p.K)

	for round := 0; round < p.OversampleRounds; round++ {
		if !jb.IsRunning() {
			return nil, ErrCancelled
		}

		sumSqrRes, err := rt.Run(ctx, chunks, newSumSqrTask(candidates, std, ncats))
		if err != nil {
			return nil, &RuntimeFailure{Phase: "sumSqr", Err: err}
		}
		psi := toFloat(sumSqrRes)

		samplerRes, err := rt.Run(ctx, chunks, newSamplerTask(candidates, std, ncats, psi, ell, p.Seed))
		if err != nil {
			return nil, &RuntimeFailure{Phase: "sampler", Err: err}
		}
		candidates = append(candidates, toPoints(samplerRes)...)

		snapshot := &model.Output{
			Names:       fr.Names(),
			Clusters:    std.DestandardizeAll(candidates),
			AvgWithinSS: psi / float64(numRows),
			Iterations:  round + 1,
			NCats:       ncats,
		}
		if err := ms.Update(modelKey, snapshot); err != nil {
			return nil, &RuntimeFailure{Phase: "publish", Err: err}
		}
		jb.Update(1)
		lg.Info("kmeans|| round complete", zap.Int("round", round+1), zap.Int("candidates", len(candidates)), zap.Float64("psi", psi))
	}

	return Recluster(p.Init, candidates, p.K, ncats, rg), nil
}

// lloydLoop runs Lloyd's iteration to convergence or MaxIters. When a pass
// leaves clusters empty, the first empty cluster is reseeded from the pass's
// worst row; if more than one was empty, the pass is not counted and is run
// again, up to K times, after which the remaining empties are accepted and
// the attempt counter resets.
func lloydLoop(ctx context.Context, p TrainingParameters, fr frame.FrameReader, std *Standardizer, ncats int, cardinalities []int, f, numRows int, centroids [][]float64, rt mapreduce.Runtime, jb job.Job, ms modelstore.Store, lg logging.Logger) (*ModelOutput, error) {
	chunks := fr.Chunks(p.ChunkSize)

	var last *ModelOutput
	reinitAttempts := 0
	r := 0

	for r < p.MaxIters {
		if !jb.IsRunning() {
			return last, ErrCancelled
		}

		csRes, err := rt.Run(ctx, chunks, newLloydsTask(centroids, std, ncats, cardinalities))
		if err != nil {
			return nil, &RuntimeFailure{Phase: "lloyds", Err: err}
		}
		cs := csRes.(*ClusterState)
		newCentroids := finalizeCategoricals(cs, ncats, f)

		var empties []int
		for c := 0; c < p.K; c++ {
			if cs.Rows[c] == 0 {
				empties = append(empties, c)
			}
		}

		if len(empties) > 0 {
			chunkStart, chunkEnd, ok := fr.ChunkContaining(cs.WorstRow)
			if !ok {
				return nil, &RuntimeFailure{Phase: "rescue", Err: fmt.Errorf("worst row %d not owned by any chunk", cs.WorstRow)}
			}
			lg.Warn("empty cluster rescue: locating worst row's chunk", zap.Int64("worstRow", cs.WorstRow), zap.Int64("chunkStart", chunkStart), zap.Int64("chunkEnd", chunkEnd))
			worst := std.Data(fr.Row(cs.WorstRow))
			copy(newCentroids[empties[0]], worst)
			cs.Rows[empties[0]] = 1

			if len(empties) > 1 {
				if reinitAttempts < p.K {
					reinitAttempts++
					lg.Warn("empty cluster rescue: re-running iteration", zap.Int("attempt", reinitAttempts), zap.Int("emptyClusters", len(empties)))
					continue
				}
				reinitAttempts = 0
				lg.Warn("empty cluster rescue: attempt bound reached, accepting remaining empties", zap.Int("emptyClusters", len(empties)))
			}
		}

		withinMSE := make([]float64, p.K)
		var totalWithinSqr float64
		for c := 0; c < p.K; c++ {
			if cs.Rows[c] > 0 {
				withinMSE[c] = cs.CSqr[c] / float64(cs.Rows[c])
			}
			totalWithinSqr += cs.CSqr[c]
		}
		avgWithinSS := totalWithinSqr / float64(numRows)

		avgSS := avgWithinSS
		if p.K > 1 {
			origin := [][]float64{make([]float64, f)}
			sumSqrRes, err := rt.Run(ctx, chunks, newSumSqrTask(origin, std, ncats))
			if err != nil {
				return nil, &RuntimeFailure{Phase: "avgSS", Err: err}
			}
			avgSS = toFloat(sumSqrRes) / float64(numRows)
		}
		avgBetweenSS := avgSS - avgWithinSS

		var delta float64
		for c := 0; c < p.K; c++ {
			delta += Distance(centroids[c], newCentroids[c], ncats)
		}
		delta /= float64(f)

		r++
		last = &model.Output{
			Names:        fr.Names(),
			Clusters:     std.DestandardizeAll(newCentroids),
			Rows:         append([]int64(nil), cs.Rows...),
			WithinMSE:    withinMSE,
			TotalAvgSS:   avgSS,
			AvgWithinSS:  avgWithinSS,
			AvgBetweenSS: avgBetweenSS,
			Iterations:   r,
			NCats:        ncats,
		}
		if err := ms.Update(modelKey, last); err != nil {
			return nil, &RuntimeFailure{Phase: "publish", Err: err}
		}
		jb.Update(1)
		lg.Info("lloyd iteration complete", zap.Int("iteration", r), zap.Float64("avgWithinSS", avgWithinSS), zap.Float64("delta", delta))

		centroids = newCentroids
		if delta < p.ConvergenceThreshold {
			break
		}
	}

	return last, nil
}
