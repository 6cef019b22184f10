package algo

import (
	"context"
	"math/rand/v2"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompLabelPropagation, LabelPropagation)
}

// Params:
//   - "start_label_attribute": string; "@id" means seed labels from vertex
//     index (standing in for the stored _id, which every vertex already
//     has a dense index for); otherwise the name of an I64/U64 column.
//   - "synchronous": bool
//   - "random_tiebreak": bool
//   - "maximum_supersteps": int
func LabelPropagation(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	attr, err := params.String("start_label_attribute", "@id")
	if err != nil {
		return nil, err
	}
	synchronous, err := params.Bool("synchronous", true)
	if err != nil {
		return nil, err
	}
	randomTiebreak, err := params.Bool("random_tiebreak", false)
	if err != nil {
		return nil, err
	}
	maxSupersteps, err := params.Int("maximum_supersteps", 20)
	if err != nil {
		return nil, err
	}

	n := graph.VertexCount()
	labels, err := seedLabels(graph, columns, attr, n)
	if err != nil {
		return nil, err
	}

	byFrom := graph.ByFrom()
	byTo := graph.ByTo()
	neighborsOf := func(v uint32) []uint32 {
		return append(append([]uint32{}, byFrom.Neighbors(v)...), byTo.Neighbors(v)...)
	}

	job.SetTotal(uint64(maxSupersteps))
	next := make([]uint64, n)

	for step := 0; step < maxSupersteps; step++ {
		if job.IsCancelled() {
			return nil, errors.New(errors.CodeCancelled, "labelpropagation cancelled")
		}
		changed := false

		if synchronous {
			for v := uint32(0); v < uint32(n); v++ {
				next[v] = mostFrequentLabel(labels, neighborsOf(v), labels[v], randomTiebreak)
			}
			for v := range labels {
				if labels[v] != next[v] {
					changed = true
				}
				labels[v] = next[v]
			}
		} else {
			for v := uint32(0); v < uint32(n); v++ {
				updated := mostFrequentLabel(labels, neighborsOf(v), labels[v], randomTiebreak)
				if updated != labels[v] {
					changed = true
				}
				labels[v] = updated
			}
		}

		job.SetProgress(uint64(step + 1))
		if !changed {
			break
		}
	}
	return labels, nil
}

func seedLabels(graph *graphstore.Graph, columns *columnstore.Store, attr string, n uint64) ([]uint64, error) {
	labels := make([]uint64, n)
	if attr == "@id" {
		for idx := uint64(0); idx < n; idx++ {
			labels[idx] = idx
		}
		return labels, nil
	}

	typ, err := columns.ColumnType(attr)
	if err != nil {
		return nil, errors.Wrap(errors.CodeAlgorithmError, err, "labelpropagation requires column %q", attr)
	}
	for idx := uint64(0); idx < n; idx++ {
		switch typ {
		case columnstore.TypeI64:
			v, err := columns.GetI64(attr, idx)
			if err != nil {
				return nil, err
			}
			labels[idx] = uint64(v)
		case columnstore.TypeU64:
			v, err := columns.GetU64(attr, idx)
			if err != nil {
				return nil, err
			}
			labels[idx] = v
		default:
			return nil, errors.New(errors.CodeAlgorithmError, "start_label_attribute %q must be an integer column", attr)
		}
	}
	return labels, nil
}

// mostFrequentLabel returns the most frequent label among the neighbors'
// labels plus the vertex's own current label (counted once), breaking ties
// by smallest label value (deterministic) or uniformly at random among the
// tied labels.
func mostFrequentLabel(labels []uint64, neighbors []uint32, current uint64, randomTiebreak bool) uint64 {
	if len(neighbors) == 0 {
		return current
	}
	counts := map[uint64]int{current: 1}
	for _, u := range neighbors {
		counts[labels[u]]++
	}

	best := current
	bestCount := -1
	var tied []uint64
	for label, count := range counts {
		switch {
		case count > bestCount:
			bestCount = count
			best = label
			tied = tied[:0]
			tied = append(tied, label)
		case count == bestCount:
			tied = append(tied, label)
		}
	}
	if len(tied) == 1 {
		return best
	}
	if randomTiebreak {
		return tied[rand.IntN(len(tied))]
	}
	min := tied[0]
	for _, l := range tied[1:] {
		if l < min {
			min = l
		}
	}
	return min
}
