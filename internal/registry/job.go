package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

// CompType identifies the kind of work a job performs.
type CompType string

const (
	CompLoadData             CompType = "LoadData"
	CompWCC                  CompType = "WCC"
	CompSCC                  CompType = "SCC"
	CompAggregateComponents  CompType = "AggregateComponents"
	CompPageRank             CompType = "PageRank"
	CompIRank                CompType = "IRank"
	CompLabelPropagation     CompType = "LabelPropagation"
	CompAttributePropagation CompType = "AttributePropagation"
	CompCustom               CompType = "Custom"
	CompStoreResults         CompType = "StoreResults"
)

// Job is an asynchronous unit of work tracked by the registry. Progress and
// cancellation are observed concurrently by the worker executing the job and
// by HTTP handlers polling its status; the result/error fields are published
// exactly once, under mu, when the worker finishes.
type Job struct {
	ID       uint64
	GraphID  uint64
	CompType CompType

	Cancel graphstore.Cancelled

	progress atomic.Uint64
	total    atomic.Uint64

	startedAt time.Time

	mu            sync.Mutex
	done          bool
	errCode       errors.Code
	errMsg        string
	result        any
	memoryUsage   uint64
	runtimeMicros int64
}

func newJob(id, graphID uint64, compType CompType) *Job {
	return &Job{ID: id, GraphID: graphID, CompType: compType, startedAt: time.Now()}
}

// SetTotal declares the unit count progress is measured against.
func (j *Job) SetTotal(total uint64) { j.total.Store(total) }

// AddProgress advances the progress counter by delta.
func (j *Job) AddProgress(delta uint64) { j.progress.Add(delta) }

// SetProgress sets the progress counter to an absolute value.
func (j *Job) SetProgress(progress uint64) { j.progress.Store(progress) }

// IsCancelled reports whether DELETE /v1/jobs/{id} has requested cancellation.
// Algorithms and the loader poll this at superstep/batch boundaries.
func (j *Job) IsCancelled() bool { return j.Cancel.IsSet() }

// RequestCancel sets the job's cancel flag. It does not itself mark the job
// terminal; the worker observes the flag and calls Fail with a Cancelled error.
func (j *Job) RequestCancel() { j.Cancel.Cancel() }

// Complete publishes a successful result. memoryUsage is the byte size the
// result vector occupies, reported back via the job's memory_usage field.
func (j *Job) Complete(result any, memoryUsage uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.done = true
	j.result = result
	j.memoryUsage = memoryUsage
	j.runtimeMicros = time.Since(j.startedAt).Microseconds()
	total := j.total.Load()
	j.progress.Store(total)
}

// Fail publishes a terminal error. The job's progress is left where it stood.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.done = true
	j.errCode = errors.GetCode(err)
	if j.errCode == "" {
		j.errCode = errors.CodeInternal
	}
	j.errMsg = errors.UserMessage(err)
	j.runtimeMicros = time.Since(j.startedAt).Microseconds()
}

// Snapshot is a consistent point-in-time read of a job's reportable fields.
type Snapshot struct {
	JobID         uint64
	GraphID       uint64
	CompType      CompType
	Progress      uint64
	Total         uint64
	Done          bool
	ErrCode       errors.Code
	ErrMsg        string
	Result        any
	MemoryUsage   uint64
	RuntimeMicros int64
}

// Snapshot returns a consistent read of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		JobID:         j.ID,
		GraphID:       j.GraphID,
		CompType:      j.CompType,
		Progress:      j.progress.Load(),
		Total:         j.total.Load(),
		Done:          j.done,
		ErrCode:       j.errCode,
		ErrMsg:        j.errMsg,
		Result:        j.result,
		MemoryUsage:   j.memoryUsage,
		RuntimeMicros: j.runtimeMicros,
	}
}
