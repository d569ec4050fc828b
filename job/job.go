// Package job implements the cooperative cancellation and progress-reporting
// facade the training core polls between map/reduce phases.
package job

import (
	"sync"
)

// Job is the facade the training core reports progress through and polls
// for cancellation. Cancellation is cooperative: IsRunning is only ever
// checked at phase boundaries, never injected into map/reduce code.
type Job interface {
	Start(task string, totalWork int)
	Update(units int)
	IsRunning() bool
	Cancel(err error)
	Done() <-chan struct{}
	Err() error
}

// LocalJob is a mutex-guarded, in-process Job implementation.
type LocalJob struct {
	mu        sync.Mutex
	task      string
	total     int
	completed int
	running   bool
	err       error
	done      chan struct{}
	once      sync.Once
}

// NewLocalJob returns a LocalJob that reports as running until Cancel is
// called.
func NewLocalJob() *LocalJob {
	return &LocalJob{running: true, done: make(chan struct{})}
}

func (j *LocalJob) Start(task string, totalWork int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.task = task
	j.total = totalWork
	j.completed = 0
}

func (j *LocalJob) Update(units int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.completed += units
}

func (j *LocalJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// Cancel marks the job as no longer running and records err, if this is the
// first call to Cancel. Subsequent calls are no-ops, matching the
// exactly-once close semantics of the Done channel.
func (j *LocalJob) Cancel(err error) {
	j.once.Do(func() {
		j.mu.Lock()
		j.running = false
		j.err = err
		j.mu.Unlock()
		close(j.done)
	})
}

func (j *LocalJob) Done() <-chan struct{} { return j.done }

func (j *LocalJob) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Progress returns (completed, total) units of work reported via Start and
// Update so far.
func (j *LocalJob) Progress() (int, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completed, j.total
}
