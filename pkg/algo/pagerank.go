package algo

import (
	"context"
	"math"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompPageRank, PageRank)
}

const pageRankConvergence = 1e-9

// Params for PageRank/IRank:
//   - "maximum_supersteps": int
//   - "damping_factor": float64
func pageRankParams(params Params) (maxSupersteps int, damping float64, err error) {
	maxSupersteps, err = params.Int("maximum_supersteps", 20)
	if err != nil {
		return 0, 0, err
	}
	damping, err = params.Float64("damping_factor", 0.85)
	if err != nil {
		return 0, 0, err
	}
	return maxSupersteps, damping, nil
}

// PageRank runs the classic iterative power-method PageRank with uniform
// dangling-mass redistribution, stopping after maximum_supersteps or once
// the L1 change between iterations drops below 1e-9.
func PageRank(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	maxSupersteps, damping, err := pageRankParams(params)
	if err != nil {
		return nil, err
	}
	n := graph.VertexCount()
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}
	return runPageRank(ctx, job, graph, initial, maxSupersteps, damping)
}

// runPageRank iterates the power method with a per-vertex restart/teleport
// term of (1-damping)*initial[v], and dangling mass redistributed in
// proportion to initial[v] (not uniformly) so that the rank sum stays
// invariant at sum(initial) regardless of whether initial sums to 1
// (plain PageRank) or to some other total (iRank's per-collection seeding).
func runPageRank(ctx context.Context, job *registry.Job, graph *graphstore.Graph, rank []float64, maxSupersteps int, damping float64) (any, error) {
	n := graph.VertexCount()
	if n == 0 {
		job.SetTotal(0)
		return []float64{}, nil
	}

	outdeg := make([]uint32, n)
	byFrom := graph.ByFrom()
	byTo := graph.ByTo()
	for v := uint32(0); v < uint32(n); v++ {
		outdeg[v] = uint32(byFrom.Degree(v))
	}

	initial := make([]float64, n)
	copy(initial, rank)
	var initialTotal float64
	for _, w := range initial {
		initialTotal += w
	}
	if initialTotal == 0 {
		initialTotal = 1
	}

	job.SetTotal(uint64(maxSupersteps))
	next := make([]float64, n)

	for step := 0; step < maxSupersteps; step++ {
		if job.IsCancelled() {
			return nil, errors.New(errors.CodeCancelled, "pagerank cancelled")
		}

		var danglingMass float64
		for v := uint32(0); v < uint32(n); v++ {
			if outdeg[v] == 0 {
				danglingMass += rank[v]
			}
		}
		danglingMass *= damping

		var l1 float64
		for v := uint32(0); v < uint32(n); v++ {
			var sum float64
			for _, u := range byTo.Neighbors(v) {
				if outdeg[u] > 0 {
					sum += rank[u] / float64(outdeg[u])
				}
			}
			restart := (1 - damping) * initial[v]
			dangling := danglingMass * initial[v] / initialTotal
			next[v] = restart + damping*sum + dangling
			l1 += math.Abs(next[v] - rank[v])
		}
		rank, next = next, rank

		job.SetProgress(uint64(step + 1))
		if l1 < pageRankConvergence {
			break
		}
	}
	return rank, nil
}
