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
	Register(registry.CompCustom, Custom)
}

// ReadOnlyGraph is the read-only accessor the embedded script interpreter
// receives: vertex count, edge iteration, and column lookups. No mutation
// is possible through this interface, by construction.
type ReadOnlyGraph interface {
	VertexCount() uint64
	VertexKey(idx uint32) []byte
	Neighbors(idx uint32) []uint32
	Predecessors(idx uint32) []uint32
	GetF64(column string, idx uint64) (float64, error)
	GetString(column string, idx uint64) (string, error)
}

type readOnlyGraph struct {
	graph   *graphstore.Graph
	columns *columnstore.Store
}

func (r readOnlyGraph) VertexCount() uint64              { return r.graph.VertexCount() }
func (r readOnlyGraph) VertexKey(idx uint32) []byte      { return r.graph.VertexKey(idx) }
func (r readOnlyGraph) Neighbors(idx uint32) []uint32    { return r.graph.ByFrom().Neighbors(idx) }
func (r readOnlyGraph) Predecessors(idx uint32) []uint32 { return r.graph.ByTo().Neighbors(idx) }
func (r readOnlyGraph) GetF64(column string, idx uint64) (float64, error) {
	return r.columns.GetF64(column, idx)
}
func (r readOnlyGraph) GetString(column string, idx uint64) (string, error) {
	return r.columns.GetString(column, idx)
}

// Interpreter is the embedded script interpreter collaborator: given a
// function body and a read-only graph handle, it returns a mapping from
// vertex index to a numeric result. The Engine never holds a lock while
// inside Run — the interpreter may take arbitrarily long.
type Interpreter interface {
	Run(ctx context.Context, function string, graph ReadOnlyGraph) (map[uint32]float64, error)
}

// Custom hands the graph to the embedded interpreter and boxes its
// vertex_index -> numeric mapping into a dense length-N result vector;
// vertices the interpreter didn't report default to NaN.
//
// Params:
//   - "function": string, the interpreter source
//   - "interpreter": Interpreter, injected by the caller (not JSON-decoded)
func Custom(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	function, err := params.String("function", "")
	if err != nil || function == "" {
		return nil, errors.New(errors.CodeInvalidInput, "python requires \"function\"")
	}
	interp, ok := params["interpreter"].(Interpreter)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "no interpreter collaborator configured")
	}

	n := graph.VertexCount()
	job.SetTotal(1)
	mapping, err := interp.Run(ctx, function, readOnlyGraph{graph: graph, columns: columns})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInterpreterError, err, "custom function failed")
	}
	job.SetProgress(1)

	result := make([]float64, n)
	for i := range result {
		result[i] = math.NaN()
	}
	for idx, v := range mapping {
		if uint64(idx) >= n {
			return nil, errors.New(errors.CodeInterpreterError, "custom function returned out-of-range vertex index %d", idx)
		}
		result[idx] = v
	}
	return result, nil
}
