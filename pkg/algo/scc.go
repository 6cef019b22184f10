package algo

import (
	"context"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompSCC, SCC)
}

// tarjanFrame is one explicit-stack frame standing in for a recursive
// strongconnect(v) call, tracking how far its neighbor iteration has
// progressed so the DFS never recurses (graphs can be arbitrarily deep).
type tarjanFrame struct {
	v        uint32
	neighbor int
}

// SCC computes strongly connected components with an iterative Tarjan's
// algorithm over by_from. Components are numbered in completion order.
func SCC(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	n := uint32(graph.VertexCount())
	csr := graph.ByFrom()

	index := make([]int32, n)
	lowlink := make([]int32, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	component := make([]int32, n)
	for i := range component {
		component[i] = -1
	}

	var stack []uint32
	var nextIndex int32
	var nextComponent int32

	job.SetTotal(uint64(n))
	batch := ProgressBatchSize(uint64(n))
	var processed uint64

	for root := uint32(0); root < n; root++ {
		if index[root] != -1 {
			continue
		}
		if job.IsCancelled() {
			return nil, errors.New(errors.CodeCancelled, "scc cancelled")
		}

		var frames []tarjanFrame
		frames = append(frames, tarjanFrame{v: root})
		index[root] = nextIndex
		lowlink[root] = nextIndex
		nextIndex++
		stack = append(stack, root)
		onStack[root] = true

		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			v := top.v
			neighbors := csr.Neighbors(v)

			if top.neighbor < len(neighbors) {
				w := neighbors[top.neighbor]
				top.neighbor++
				if index[w] == -1 {
					index[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					stack = append(stack, w)
					onStack[w] = true
					frames = append(frames, tarjanFrame{v: w})
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
				continue
			}

			// Neighbor iteration exhausted: pop the frame and propagate lowlink
			// to the parent frame, mirroring the post-recursion step of the
			// recursive algorithm.
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlink[v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[v]
				}
			}

			if lowlink[v] == index[v] {
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					component[w] = nextComponent
					processed++
					if processed%batch == 0 {
						job.SetProgress(processed)
					}
					if w == v {
						break
					}
				}
				nextComponent++
			}
		}
	}
	job.SetProgress(uint64(n))

	return component, nil
}
