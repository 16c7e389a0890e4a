// Pool is the small fixed-size worker pool described in SPEC_FULL.md §6:
// each task is self-contained and communicates its result back through a
// one-shot completion channel, matching spec.md §5's "main thread blocks
// only at explicit recv() on the per-task completion channel".
package process

import "context"

// Task is a unit of work submitted to a Pool. It normally wraps a call to
// Run, but is left generic so callers can pool other blocking I/O too.
type Task func(ctx context.Context) (*Result, error)

// Future is the one-shot completion channel for a submitted Task.
type Future <-chan TaskResult

// TaskResult pairs a Task's outcome together so it can travel over a
// single channel.
type TaskResult struct {
	Result *Result
	Err    error
}

// Pool runs Tasks on a fixed number of worker goroutines. Workers share no
// mutable state with each other or with the submitter except the queue
// channel itself and each task's own completion channel (spec.md §5).
type Pool struct {
	tasks chan poolJob
}

type poolJob struct {
	task   Task
	ctx    context.Context
	result chan TaskResult
}

// NewPool starts a Pool with the given number of workers. size is clamped
// to at least 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		tasks: make(chan poolJob),
	}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for job := range p.tasks {
		res, err := job.task(job.ctx)
		job.result <- TaskResult{Result: res, Err: err}
		close(job.result)
	}
}

// Submit enqueues a task and returns its one-shot completion channel. The
// caller receives from it to wait for the result; submitting blocks only
// until a worker accepts the job, not until it completes.
func (p *Pool) Submit(ctx context.Context, task Task) Future {
	result := make(chan TaskResult, 1)
	p.tasks <- poolJob{task: task, ctx: ctx, result: result}
	return result
}

// Close stops accepting new tasks. In-flight tasks still complete and
// deliver their result; it is the caller's responsibility to have already
// received from every Future it cares about before calling Close.
func (p *Pool) Close() {
	close(p.tasks)
}
