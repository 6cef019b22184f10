package algo

import (
	"context"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompWCC, WCC)
}

// WCC computes weakly connected components via union-find over the
// undirected view of the edge set (each directed edge unions both of its
// endpoints). Representatives are normalized to the minimum index in their
// component. total = E; progress ticks per union batch.
func WCC(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	n := graph.VertexCount()
	parent := make([]uint32, n)
	rank := make([]uint8, n)
	for i := range parent {
		parent[i] = uint32(i)
	}

	var find func(x uint32) uint32
	find = func(x uint32) uint32 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b uint32) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		switch {
		case rank[ra] < rank[rb]:
			parent[ra] = rb
		case rank[ra] > rank[rb]:
			parent[rb] = ra
		default:
			parent[rb] = ra
			rank[ra]++
		}
	}

	e := graph.EdgeCount()
	job.SetTotal(e)
	csr := graph.ByFrom()
	batch := ProgressBatchSize(e)
	var processed uint64
	for v := uint32(0); v < uint32(n); v++ {
		for _, u := range csr.Neighbors(v) {
			if job.IsCancelled() {
				return nil, errors.New(errors.CodeCancelled, "wcc cancelled")
			}
			union(v, u)
			processed++
			if processed%batch == 0 {
				job.SetProgress(processed)
			}
		}
	}
	job.SetProgress(e)

	minMember := make([]uint32, n)
	for i := range minMember {
		minMember[i] = uint32(n)
	}
	for i := uint32(0); i < uint32(n); i++ {
		root := find(i)
		if i < minMember[root] {
			minMember[root] = i
		}
	}

	labels := make([]uint32, n)
	for i := range labels {
		labels[i] = minMember[find(uint32(i))]
	}
	return labels, nil
}
