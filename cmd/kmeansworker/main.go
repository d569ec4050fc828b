// Command kmeansworker is a distributed map/reduce worker node: it exposes
// the training core's three tasks (SumSqr, Sampler, Lloyds) over
// net/rpc-over-HTTP so a coordinator running mapreduce.RPCRuntime can fan
// map calls out to it, mirroring the teacher's worker main loop shape.
package main

import (
	"flag"
	"log"

	"kmscale/kmeans"
	"kmscale/mapreduce"
)

func main() {
	addr := flag.String("address", "localhost:11091", "address to listen on")
	poolSize := flag.Int("pool-size", 8, "max concurrent in-flight map calls")
	flag.Parse()

	registry := mapreduce.NewRegistry()
	kmeans.RegisterTasks(registry)

	worker, err := mapreduce.NewWorker(registry, *poolSize)
	if err != nil {
		log.Fatalf("creating worker: %v", err)
	}

	log.Printf("serving requests on %s", *addr)
	if err := mapreduce.Serve(worker, *addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
