package algo

import (
	"context"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompAttributePropagation, AttributePropagation)
}

// Params:
//   - "start_label_attribute": string column name; scalar string values are
//     lifted to a singleton set.
//   - "synchronous": bool
//   - "backwards": bool — merge from by_from (successors) instead of by_to (predecessors)
//   - "maximum_supersteps": int
func AttributePropagation(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	attr, err := params.String("start_label_attribute", "")
	if err != nil || attr == "" {
		return nil, errors.New(errors.CodeInvalidInput, "attributepropagation requires \"start_label_attribute\"")
	}
	synchronous, err := params.Bool("synchronous", true)
	if err != nil {
		return nil, err
	}
	backwards, err := params.Bool("backwards", false)
	if err != nil {
		return nil, err
	}
	maxSupersteps, err := params.Int("maximum_supersteps", 20)
	if err != nil {
		return nil, err
	}

	n := graph.VertexCount()
	sets := make([]map[string]struct{}, n)
	for idx := uint64(0); idx < n; idx++ {
		v, err := columns.GetString(attr, idx)
		if err != nil {
			return nil, errors.Wrap(errors.CodeAlgorithmError, err, "attributepropagation requires column %q", attr)
		}
		sets[idx] = map[string]struct{}{v: {}}
	}

	sources := graph.ByTo() // v's inbound neighbors u such that u->v, i.e. forward propagation
	if backwards {
		sources = graph.ByFrom() // v's outbound neighbors u such that v->u, reversed to propagate from u into v
	}

	job.SetTotal(uint64(maxSupersteps))
	current := sets

	for step := 0; step < maxSupersteps; step++ {
		if job.IsCancelled() {
			return nil, errors.New(errors.CodeCancelled, "attributepropagation cancelled")
		}
		changed := false

		if synchronous {
			// Double-buffered: every vertex merges strictly from the previous
			// superstep's sets, so update order within the step doesn't matter.
			next := make([]map[string]struct{}, n)
			for v := uint32(0); v < uint32(n); v++ {
				merged := unionSets(current[v], sources.Neighbors(v), current)
				if len(merged) != len(current[v]) {
					changed = true
				}
				next[v] = merged
			}
			current = next
		} else {
			// In place: vertices ascending see already-updated sets for
			// lower-index neighbors and the prior superstep's set for the rest.
			for v := uint32(0); v < uint32(n); v++ {
				merged := unionSets(current[v], sources.Neighbors(v), current)
				if len(merged) != len(current[v]) {
					changed = true
				}
				current[v] = merged
			}
		}

		job.SetProgress(uint64(step + 1))
		if !changed {
			break
		}
	}

	result := make([][]string, n)
	for idx, set := range current {
		labels := make([]string, 0, len(set))
		for label := range set {
			labels = append(labels, label)
		}
		result[idx] = labels
	}
	return result, nil
}

// unionSets returns own ∪ (⋃ sets[u] for u in neighbors).
func unionSets(own map[string]struct{}, neighbors []uint32, sets []map[string]struct{}) map[string]struct{} {
	merged := make(map[string]struct{}, len(own))
	for label := range own {
		merged[label] = struct{}{}
	}
	for _, u := range neighbors {
		for label := range sets[u] {
			merged[label] = struct{}{}
		}
	}
	return merged
}
