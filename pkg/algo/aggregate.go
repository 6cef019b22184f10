package algo

import (
	"context"
	"fmt"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompAggregateComponents, AggregateComponents)
}

// Distribution is the attribute-value histogram for one component.
type Distribution map[string]int

// AggregateComponents reads component labels from a prior WCC/SCC job's
// result vector, reads a named attribute column, and produces a
// component-id -> value-histogram map. Numeric attribute values are
// formatted to strings so the histogram keying is uniform across types.
//
// Params:
//   - "component_labels": []uint32 or []int32, the WCC/SCC result vector
//   - "attribute": string, the column name to histogram
func AggregateComponents(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	attribute, err := params.String("attribute", "")
	if err != nil || attribute == "" {
		return nil, errors.New(errors.CodeInvalidInput, "aggregatecomponents requires \"attribute\"")
	}
	labels, err := componentLabels(params)
	if err != nil {
		return nil, err
	}

	typ, err := columns.ColumnType(attribute)
	if err != nil {
		return nil, errors.Wrap(errors.CodeAlgorithmError, err, "aggregatecomponents requires column %q", attribute)
	}

	n := graph.VertexCount()
	if uint64(len(labels)) != n {
		return nil, errors.New(errors.CodeAlgorithmError, "component label vector length %d does not match vertex count %d", len(labels), n)
	}

	job.SetTotal(n)
	batch := ProgressBatchSize(n)
	result := map[uint32]Distribution{}

	for idx := uint64(0); idx < n; idx++ {
		if job.IsCancelled() {
			return nil, errors.New(errors.CodeCancelled, "aggregatecomponents cancelled")
		}
		value, err := formatAttribute(columns, typ, attribute, idx)
		if err != nil {
			return nil, err
		}
		comp := labels[idx]
		dist, ok := result[comp]
		if !ok {
			dist = Distribution{}
			result[comp] = dist
		}
		dist[value]++
		if idx%batch == 0 {
			job.SetProgress(idx)
		}
	}
	job.SetProgress(n)
	return result, nil
}

func componentLabels(params Params) ([]uint32, error) {
	v, ok := params["component_labels"]
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput, "aggregatecomponents requires \"component_labels\"")
	}
	switch labels := v.(type) {
	case []uint32:
		return labels, nil
	case []int32:
		out := make([]uint32, len(labels))
		for i, l := range labels {
			out[i] = uint32(l)
		}
		return out, nil
	default:
		return nil, errors.New(errors.CodeInvalidInput, "\"component_labels\" must be a component result vector")
	}
}

func formatAttribute(columns *columnstore.Store, typ columnstore.Type, name string, idx uint64) (string, error) {
	switch typ {
	case columnstore.TypeString:
		return columns.GetString(name, idx)
	case columnstore.TypeF64:
		v, err := columns.GetF64(name, idx)
		return fmt.Sprintf("%g", v), err
	case columnstore.TypeI64:
		v, err := columns.GetI64(name, idx)
		return fmt.Sprintf("%d", v), err
	case columnstore.TypeU64:
		v, err := columns.GetU64(name, idx)
		return fmt.Sprintf("%d", v), err
	default:
		return "", errors.New(errors.CodeAlgorithmError, "unsupported column type for %q", name)
	}
}
