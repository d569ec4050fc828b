package mapreduce

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/rpc"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/frame"
)

// sumTask is a minimal WireTask test double: it sums column 0 across a
// chunk, skipping NaN, plus a fixed bias baked into its params.
type sumTask struct {
	Bias float64
}

func (t *sumTask) Map(c frame.Chunk) (Result, error) {
	var total float64
	for row := 0; row < c.Len(); row++ {
		v := c.At0(0, row)
		if math.IsNaN(v) {
			continue
		}
		total += v
	}
	return total + t.Bias, nil
}

func (t *sumTask) Reduce(a, b Result) Result { return a.(float64) + b.(float64) }
func (t *sumTask) Zero() Result              { return float64(0) }

func (t *sumTask) Name() string                  { return "sum" }
func (t *sumTask) NumCols() int                  { return 1 }
func (t *sumTask) EncodeParams() ([]byte, error) { return json.Marshal(t) }
func (t *sumTask) DecodeResult(data []byte) (Result, error) {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeSumTask(params []byte) (Task, error) {
	var t sumTask
	if err := json.Unmarshal(params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func TestWireFloatNaNRoundTrip(t *testing.T) {
	data, err := json.Marshal(wireFloat(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var f wireFloat
	require.NoError(t, json.Unmarshal(data, &f))
	assert.True(t, math.IsNaN(float64(f)))

	data, err = json.Marshal(wireFloat(3.5))
	require.NoError(t, err)
	var g wireFloat
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, 3.5, float64(g))
}

// startLoopbackHTTPWorker serves worker over its own listener and its own
// http.ServeMux, never touching http.DefaultServeMux, so multiple workers
// can coexist in one test binary without colliding on rpc.DefaultRPCPath.
func startLoopbackHTTPWorker(t *testing.T, worker *Worker) string {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("Worker", worker))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)
	go http.Serve(listener, mux)

	return listener.Addr().String()
}

func TestWorkerMapOverLoopbackListener(t *testing.T) {
	registry := NewRegistry()
	registry.Register("sum", decodeSumTask)
	worker, err := NewWorker(registry, 2)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("Worker", worker))
	go server.Accept(listener)

	cli, err := rpc.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer cli.Close()

	params, err := json.Marshal(&sumTask{Bias: 1})
	require.NoError(t, err)

	req := &MapRequest{
		TaskName: "sum",
		Params:   params,
		Chunk:    WireChunk{StartRow: 0, Rows: [][]wireFloat{{1}, {2}, {3}}},
		NumCols:  1,
	}
	var resp MapResponse
	require.NoError(t, cli.Call("Worker.Map", req, &resp))

	var got float64
	require.NoError(t, json.Unmarshal(resp.Result, &got))
	assert.Equal(t, 7.0, got) // 1+2+3+bias(1)
}

func TestWorkerMapUnknownTaskErrors(t *testing.T) {
	registry := NewRegistry()
	worker, err := NewWorker(registry, 1)
	require.NoError(t, err)

	var resp MapResponse
	err = worker.Map(&MapRequest{TaskName: "nope"}, &resp)
	require.Error(t, err)
}

func TestRPCRuntimeRoundRobinsAcrossWorkers(t *testing.T) {
	var countA, countB int32
	countingFactory := func(counter *int32) TaskFactory {
		return func(params []byte) (Task, error) {
			atomic.AddInt32(counter, 1)
			return decodeSumTask(params)
		}
	}

	registryA := NewRegistry()
	registryA.Register("sum", countingFactory(&countA))
	workerA, err := NewWorker(registryA, 2)
	require.NoError(t, err)

	registryB := NewRegistry()
	registryB.Register("sum", countingFactory(&countB))
	workerB, err := NewWorker(registryB, 2)
	require.NoError(t, err)

	addrA := startLoopbackHTTPWorker(t, workerA)
	addrB := startLoopbackHTTPWorker(t, workerB)

	fr, err := frame.New([]string{"x"}, []int{-1}, [][]float64{{1, 2, 3, 4}})
	require.NoError(t, err)
	chunks := fr.Chunks(1)

	rt := NewRPCRuntime("tcp", []string{addrA, addrB})
	res, err := rt.Run(context.Background(), chunks, &sumTask{})
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.(float64))

	// 4 chunks round-robin across 2 workers: each handles exactly 2.
	assert.EqualValues(t, 2, atomic.LoadInt32(&countA))
	assert.EqualValues(t, 2, atomic.LoadInt32(&countB))
}

func TestRPCRuntimeRunWithNoChunksReturnsZero(t *testing.T) {
	rt := NewRPCRuntime("tcp", []string{"127.0.0.1:0"})
	res, err := rt.Run(context.Background(), nil, &sumTask{})
	require.NoError(t, err)
	assert.Equal(t, float64(0), res.(float64))
}
