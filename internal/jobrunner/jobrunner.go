// Package jobrunner executes registry jobs on a fixed-size worker pool.
//
// Every HTTP request that creates a job (loaddata, any algorithm, or
// storeresults) returns immediately with the freshly allocated job id; the
// actual work runs asynchronously here. A worker boundary recovers panics
// and converts them into the job's terminal error so a single buggy
// algorithm can never take down the server.
package jobrunner

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/observability"
)

// Task is the work a job performs. It must poll job.IsCancelled() at
// superstep/batch boundaries and call job.AddProgress/SetProgress as it
// goes. Returning an error fails the job; on success, result and
// memoryUsage are published via job.Complete.
type Task func(ctx context.Context, job *registry.Job) (result any, memoryUsage uint64, err error)

// Runner is a fixed-size pool of workers draining submitted jobs.
type Runner struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// New creates a Runner with poolSize concurrent workers. poolSize <= 0
// defaults to runtime.NumCPU().
func New(poolSize int) *Runner {
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}
	return &Runner{sem: make(chan struct{}, poolSize)}
}

// Submit schedules task to run for job on the next free worker slot. It
// returns immediately; the caller already has job's id to hand back to the
// HTTP client.
func (r *Runner) Submit(ctx context.Context, job *registry.Job, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.sem <- struct{}{}
		defer func() { <-r.sem }()
		r.run(ctx, job, task)
	}()
}

func (r *Runner) run(ctx context.Context, job *registry.Job, task Task) {
	compType := string(job.CompType)
	observability.Job().OnJobSubmit(ctx, compType)
	start := time.Now()

	result, memoryUsage, err := r.invoke(ctx, job, task)

	observability.Job().OnJobComplete(ctx, compType, time.Since(start), err)
	if err != nil {
		if job.IsCancelled() && errors.GetCode(err) == "" {
			err = errors.Wrap(errors.CodeCancelled, err, "job cancelled")
		}
		job.Fail(err)
		return
	}
	job.Complete(result, memoryUsage)
}

// invoke runs task, recovering any panic into an Internal error so a single
// worker's crash never propagates past the pool.
func (r *Runner) invoke(ctx context.Context, job *registry.Job, task Task) (result any, memoryUsage uint64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.CodeInternal, "job panicked: %v", p)
		}
	}()
	return task(ctx, job)
}

// Wait blocks until every submitted job has finished. Used by the shutdown
// endpoint to drain in-flight work before the process exits.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// ReportSuperstep forwards one superstep's duration to the OnSuperstep
// observability hook. The algorithms in pkg/algo do not call it; they only
// update their job's progress counter.
func ReportSuperstep(ctx context.Context, compType string, superstep int, duration time.Duration) {
	observability.Job().OnSuperstep(ctx, compType, superstep, duration)
}

// ProgressBatchSize is the coarseness the spec requires for progress ticks:
// once per superstep, or once per N/1000 vertices, whichever is coarser.
func ProgressBatchSize(n uint64) uint64 {
	batch := n / 1000
	if batch == 0 {
		return 1
	}
	return batch
}
