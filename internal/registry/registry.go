// Package registry holds the global lifecycle of graphs and jobs: id
// allocation, list/get/delete, and the reference count that ties a graph's
// deletability to the jobs created against it that have not been deleted.
//
// A single read-write lock guards the registry's two maps. List/get take a
// shared hold; allocation and deletion take an exclusive hold. Algorithm and
// loader execution never hold this lock — they hold a direct reference to
// their *graphstore.Graph, obtained once via GraphHandle and used without
// the registry lock thereafter (the graph is immutable once sealed).
package registry

import (
	"context"
	"sync"

	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
	"github.com/matzehuels/graphengine/pkg/observability"
)

// GraphHandle is a registered graph and its attribute columns.
type GraphHandle struct {
	ID      uint64
	Graph   *graphstore.Graph
	Columns *columnstore.Store
}

// graphEntry is the registry's bookkeeping for one graph id. ready is false
// between ReserveGraph and RegisterGraph — the id exists (a LoadData job is
// using it) but no graph is queryable yet.
type graphEntry struct {
	ready   bool
	graph   *graphstore.Graph
	columns *columnstore.Store
	refs    int // count of jobs created against this graph id, not yet deleted
}

// Registry is the process-wide graph/job table. The zero value is not
// usable; construct with New.
type Registry struct {
	mu sync.RWMutex

	graphs      map[uint64]*graphEntry
	jobs        map[uint64]*Job
	nextGraphID uint64
	nextJobID   uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		graphs: make(map[uint64]*graphEntry),
		jobs:   make(map[uint64]*Job),
	}
}

// ReserveGraph allocates a fresh graph id for a LoadData job before the
// graph itself exists. The id is visible to DeleteGraph/GetGraph bookkeeping
// (so concurrent jobs against it are tracked) but GetGraph returns NotFound
// until RegisterGraph completes it.
func (r *Registry) ReserveGraph() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextGraphID++
	id := r.nextGraphID
	r.graphs[id] = &graphEntry{}
	return id
}

// RegisterGraph completes a reserved graph id with its built graph and
// columns, making it visible to GetGraph/ListGraphs. Called by the loader
// once a LoadData job succeeds; if the load fails the id is abandoned
// (never registered) and released when its LoadData job is deleted.
func (r *Registry) RegisterGraph(id uint64, graph *graphstore.Graph, columns *columnstore.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.graphs[id]
	if !ok {
		return errors.New(errors.CodeNotFound, "no reserved graph %d", id)
	}
	entry.ready = true
	entry.graph = graph
	entry.columns = columns
	observability.Registry().OnGraphSealed(context.Background(), id, graph.VertexCount(), graph.EdgeCount())
	return nil
}

// AbandonGraph releases a reserved graph id that never completed loading
// (the LoadData job failed or was cancelled before RegisterGraph).
func (r *Registry) AbandonGraph(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.graphs[id]; ok && !entry.ready && entry.refs == 0 {
		delete(r.graphs, id)
	}
}

// GetGraph returns the handle for a registered (ready) graph.
func (r *Registry) GetGraph(id uint64) (GraphHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.graphs[id]
	if !ok || !entry.ready {
		return GraphHandle{}, errors.New(errors.CodeNotFound, "graph %d not found", id)
	}
	return GraphHandle{ID: id, Graph: entry.graph, Columns: entry.columns}, nil
}

// ListGraphs returns handles for every registered (ready) graph.
func (r *Registry) ListGraphs() []GraphHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]GraphHandle, 0, len(r.graphs))
	for id, entry := range r.graphs {
		if entry.ready {
			out = append(out, GraphHandle{ID: id, Graph: entry.graph, Columns: entry.columns})
		}
	}
	return out
}

// DeleteGraph removes a graph, failing with CodeInUse while any job (of any
// status) still references it.
func (r *Registry) DeleteGraph(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.graphs[id]
	if !ok || !entry.ready {
		return errors.New(errors.CodeNotFound, "graph %d not found", id)
	}
	if entry.refs > 0 {
		observability.Registry().OnGraphInUse(context.Background(), id, entry.refs)
		return errors.New(errors.CodeInUse, "graph %d is referenced by %d job(s)", id, entry.refs)
	}
	delete(r.graphs, id)
	observability.Registry().OnGraphDropped(context.Background(), id)
	return nil
}

// CreateLoadJob allocates a LoadData job and a fresh graph id together.
func (r *Registry) CreateLoadJob() (*Job, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextGraphID++
	graphID := r.nextGraphID
	r.graphs[graphID] = &graphEntry{refs: 1}

	r.nextJobID++
	jobID := r.nextJobID
	job := newJob(jobID, graphID, CompLoadData)
	r.jobs[jobID] = job
	return job, graphID
}

// CreateJob allocates a job against an existing, already-registered graph.
func (r *Registry) CreateJob(compType CompType, graphID uint64) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.graphs[graphID]
	if !ok || !entry.ready {
		return nil, errors.New(errors.CodeNotFound, "graph %d not found", graphID)
	}
	entry.refs++

	r.nextJobID++
	jobID := r.nextJobID
	job := newJob(jobID, graphID, compType)
	r.jobs[jobID] = job
	return job, nil
}

// GetJob returns the job registered under id.
func (r *Registry) GetJob(id uint64) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "job %d not found", id)
	}
	return job, nil
}

// ListJobs returns every tracked job.
func (r *Registry) ListJobs() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out
}

// DeleteJob removes a job, requesting cancellation first if it hasn't
// finished, and releases its reference on the underlying graph.
func (r *Registry) DeleteJob(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return errors.New(errors.CodeNotFound, "job %d not found", id)
	}
	job.RequestCancel()
	delete(r.jobs, id)

	if entry, ok := r.graphs[job.GraphID]; ok {
		entry.refs--
		if !entry.ready && entry.refs == 0 {
			delete(r.graphs, job.GraphID)
		}
	}
	return nil
}
