package kmeans

import "kmscale/mapreduce"

// RegisterTasks registers every task this package ships as a WireTask
// (SumSqr, Sampler, Lloyds) against reg, so that a worker process running
// mapreduce.Serve can decode and execute Map requests for any of the three
// training passes.
func RegisterTasks(reg *mapreduce.Registry) {
	reg.Register("sumSqr", decodeSumSqrTask)
	reg.Register("sampler", decodeSamplerTask)
	reg.Register("lloyds", decodeLloydsTask)
}
