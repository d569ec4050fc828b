package mapreduce

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/panjf2000/ants/v2"

	"kmscale/frame"
)

// WireTask is the subset of Task a concrete task implements to be shipped
// across the RPCRuntime: a stable name used to look up the matching
// TaskFactory on the worker side, its own parameters serialized once and
// sent with every chunk, and a decoder for the JSON result a worker hands
// back from Map.
type WireTask interface {
	Task
	Name() string
	NumCols() int
	EncodeParams() ([]byte, error)
	DecodeResult(data []byte) (Result, error)
}

// TaskFactory reconstructs a concrete Task on the worker side from the
// parameters a WireTask encoded on the coordinator side.
type TaskFactory func(params []byte) (Task, error)

// Registry maps task names to factories. Both the coordinator (to validate
// a task is known before dispatch) and every worker process (to decode
// incoming Map requests) share the same registrations.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TaskFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TaskFactory)}
}

// Register associates name with factory. Re-registering the same name
// overwrites the previous factory.
func (r *Registry) Register(name string, factory TaskFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *Registry) lookup(name string) (TaskFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// wireFloat marshals math.NaN() as JSON null, since encoding/json otherwise
// rejects non-finite floats outright -- the hybrid distance kernel's NA
// handling depends on NaN surviving the wire round-trip intact.
type wireFloat float64

func (f wireFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *wireFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = wireFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = wireFloat(v)
	return nil
}

// WireChunk is the serialized form of a frame.Chunk sent to an RPC worker:
// every row's raw (pre-standardization) values, NaN-safe.
type WireChunk struct {
	StartRow int64
	Rows     [][]wireFloat
}

func encodeChunk(c frame.Chunk, numCols int) WireChunk {
	wc := WireChunk{StartRow: c.Start(), Rows: make([][]wireFloat, c.Len())}
	for row := 0; row < c.Len(); row++ {
		r := make([]wireFloat, numCols)
		for col := 0; col < numCols; col++ {
			r[col] = wireFloat(c.At0(col, row))
		}
		wc.Rows[row] = r
	}
	return wc
}

// memChunk is a frame.Chunk reconstructed from a WireChunk on the worker
// side, decoupled from any live Frame.
type memChunk struct {
	start int64
	rows  [][]wireFloat
}

func (c *memChunk) Len() int     { return len(c.rows) }
func (c *memChunk) Start() int64 { return c.start }
func (c *memChunk) At0(col, localRow int) float64 {
	return float64(c.rows[localRow][col])
}

func (wc WireChunk) toChunk() frame.Chunk {
	return &memChunk{start: wc.StartRow, rows: wc.Rows}
}

// MapRequest/MapResponse are the net/rpc payloads exchanged between the
// RPCRuntime coordinator and a Worker, shaped after the teacher's
// MapInput/InitMapOutput pair but generalized to any WireTask.
type MapRequest struct {
	TaskName string
	Params   []byte
	Chunk    WireChunk
	NumCols  int
}

type MapResponse struct {
	Result []byte
}

// Worker is the net/rpc receiver registered on every worker node. It looks
// up the requested task in its Registry and executes Map against a bounded
// goroutine pool, mirroring the teacher's worker.go Mapper shape but
// generic over task type.
type Worker struct {
	Registry *Registry
	pool     *ants.Pool
}

// NewWorker returns a Worker backed by a Registry and an ants pool bounding
// concurrent in-flight Map calls to poolSize.
func NewWorker(registry *Registry, poolSize int) (*Worker, error) {
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("mapreduce: creating worker pool: %w", err)
	}
	return &Worker{Registry: registry, pool: pool}, nil
}

// Map is the RPC method invoked by the coordinator for every chunk.
func (w *Worker) Map(req *MapRequest, resp *MapResponse) error {
	factory, ok := w.Registry.lookup(req.TaskName)
	if !ok {
		return fmt.Errorf("mapreduce: worker has no factory registered for task %q", req.TaskName)
	}
	task, err := factory(req.Params)
	if err != nil {
		return fmt.Errorf("mapreduce: decoding task %q params: %w", req.TaskName, err)
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	submitErr := w.pool.Submit(func() {
		res, mapErr := task.Map(req.Chunk.toChunk())
		done <- outcome{res, mapErr}
	})
	if submitErr != nil {
		return fmt.Errorf("mapreduce: scheduling map on worker pool: %w", submitErr)
	}
	out := <-done
	if out.err != nil {
		return out.err
	}

	encoded, err := json.Marshal(out.result)
	if err != nil {
		return fmt.Errorf("mapreduce: encoding result for task %q: %w", req.TaskName, err)
	}
	resp.Result = encoded
	return nil
}

// Serve registers worker on the given net/rpc-over-HTTP listener and blocks
// accepting connections, matching the teacher's worker.go main loop shape.
func Serve(worker *Worker, addr string) error {
	if err := rpc.RegisterName("Worker", worker); err != nil {
		return fmt.Errorf("mapreduce: registering worker: %w", err)
	}
	rpc.HandleHTTP()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mapreduce: listening on %s: %w", addr, err)
	}
	return http.Serve(listener, nil)
}

// RPCRuntime dispatches each chunk's Map call to one of a fixed pool of
// worker addresses over net/rpc-over-HTTP, exactly mirroring master.go's
// mapFunction dial-per-chunk / cli.Go fan-out / <-call.Done join shape, and
// then reduces results locally, one after another in chunk order, using the coordinator's
// own Task.Reduce -- Reduce never crosses the wire.
type RPCRuntime struct {
	workerAddrs []string
	network     string
}

// NewRPCRuntime returns an RPCRuntime that round-robins chunks across
// workerAddrs (host:port strings) over the given network ("tcp").
func NewRPCRuntime(network string, workerAddrs []string) *RPCRuntime {
	return &RPCRuntime{network: network, workerAddrs: workerAddrs}
}

func (r *RPCRuntime) Run(ctx context.Context, chunks []frame.Chunk, t Task) (Result, error) {
	if len(chunks) == 0 {
		return t.Zero(), nil
	}
	wireTask, ok := t.(WireTask)
	if !ok {
		return nil, fmt.Errorf("mapreduce: task does not implement WireTask, cannot dispatch over RPC")
	}
	if len(r.workerAddrs) == 0 {
		return nil, fmt.Errorf("mapreduce: no worker addresses configured")
	}
	params, err := wireTask.EncodeParams()
	if err != nil {
		return nil, fmt.Errorf("mapreduce: encoding task params: %w", err)
	}

	numCols := wireTask.NumCols()

	calls := make([]*rpc.Call, len(chunks))
	clients := make([]*rpc.Client, len(chunks))
	responses := make([]MapResponse, len(chunks))
	for i, c := range chunks {
		addr := r.workerAddrs[i%len(r.workerAddrs)]
		cli, dialErr := rpc.DialHTTP(r.network, addr)
		if dialErr != nil {
			return nil, fmt.Errorf("mapreduce: dialing worker %s: %w", addr, dialErr)
		}
		clients[i] = cli
		req := &MapRequest{
			TaskName: wireTask.Name(),
			Params:   params,
			Chunk:    encodeChunk(c, numCols),
			NumCols:  numCols,
		}
		calls[i] = cli.Go("Worker.Map", req, &responses[i], nil)
	}
	defer func() {
		for _, cli := range clients {
			if cli != nil {
				_ = cli.Close()
			}
		}
	}()

	for i, call := range calls {
		select {
		case <-call.Done:
			if call.Error != nil {
				return nil, fmt.Errorf("mapreduce: worker call for chunk %d: %w", i, call.Error)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	acc := t.Zero()
	for i := range chunks {
		partial, decodeErr := wireTask.DecodeResult(responses[i].Result)
		if decodeErr != nil {
			return nil, fmt.Errorf("mapreduce: decoding result for chunk %d: %w", i, decodeErr)
		}
		acc = t.Reduce(acc, partial)
	}
	return acc, nil
}
