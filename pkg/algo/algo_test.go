package algo

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func newJob(compType registry.CompType) *registry.Job {
	r := registry.New()
	job, _ := r.CreateJob(compType, reserveDummyGraph(r))
	return job
}

func reserveDummyGraph(r *registry.Registry) uint64 {
	loadJob, graphID := r.CreateLoadJob()
	g := graphstore.New()
	require1(g.SealVertices())
	require1(g.Seal())
	_ = r.RegisterGraph(graphID, g, columnstore.New(0))
	_ = loadJob
	return graphID
}

func require1(err error) {
	if err != nil {
		panic(err)
	}
}

// chainGraph builds A->B, C->D with vertex order A,B,C,D (indices 0..3).
func chainGraph(t *testing.T) (*graphstore.Graph, map[string]uint32) {
	t.Helper()
	g := graphstore.New()
	idx := map[string]uint32{}
	for _, key := range []string{"A", "B", "C", "D"} {
		i, err := g.AddVertex([]byte(key))
		require.NoError(t, err)
		idx[key] = i
	}
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.AddEdge(idx["A"], idx["B"]))
	require.NoError(t, g.AddEdge(idx["C"], idx["D"]))
	require.NoError(t, g.Seal())
	return g, idx
}

func TestWCCScenarioFromSpec(t *testing.T) {
	g, idx := chainGraph(t)
	job := newJob(registry.CompWCC)

	result, err := WCC(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{})
	require.NoError(t, err)
	labels := result.([]uint32)

	assert.Equal(t, labels[idx["A"]], labels[idx["B"]])
	assert.Equal(t, labels[idx["C"]], labels[idx["D"]])
	assert.NotEqual(t, labels[idx["A"]], labels[idx["C"]])
	assert.Equal(t, uint32(0), labels[idx["A"]])
	assert.Equal(t, uint32(2), labels[idx["C"]])
}

func TestWCCIdempotence(t *testing.T) {
	g, _ := chainGraph(t)
	job1 := newJob(registry.CompWCC)
	job2 := newJob(registry.CompWCC)

	r1, err := WCC(context.Background(), job1, g, columnstore.New(g.VertexCount()), Params{})
	require.NoError(t, err)
	r2, err := WCC(context.Background(), job2, g, columnstore.New(g.VertexCount()), Params{})
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestSCCSelfLoopsAreSingletons(t *testing.T) {
	g := graphstore.New()
	a, _ := g.AddVertex([]byte("a"))
	b, _ := g.AddVertex([]byte("b"))
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.AddEdge(a, a))
	require.NoError(t, g.AddEdge(b, b))
	require.NoError(t, g.Seal())

	job := newJob(registry.CompSCC)
	result, err := SCC(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{})
	require.NoError(t, err)
	comps := result.([]int32)
	assert.NotEqual(t, comps[a], comps[b])
}

func TestSCCCycleIsOneComponent(t *testing.T) {
	g := graphstore.New()
	a, _ := g.AddVertex([]byte("a"))
	b, _ := g.AddVertex([]byte("b"))
	c, _ := g.AddVertex([]byte("c"))
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.AddEdge(a, b))
	require.NoError(t, g.AddEdge(b, c))
	require.NoError(t, g.AddEdge(c, a))
	require.NoError(t, g.Seal())

	job := newJob(registry.CompSCC)
	result, err := SCC(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{})
	require.NoError(t, err)
	comps := result.([]int32)
	assert.Equal(t, comps[a], comps[b])
	assert.Equal(t, comps[b], comps[c])
}

func TestPageRankSingleVertexNoEdges(t *testing.T) {
	g := graphstore.New()
	_, err := g.AddVertex([]byte("only"))
	require.NoError(t, err)
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.Seal())

	job := newJob(registry.CompPageRank)
	result, err := PageRank(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{"maximum_supersteps": 10.0, "damping_factor": 0.85})
	require.NoError(t, err)
	ranks := result.([]float64)
	assert.InDelta(t, 1.0, ranks[0], 1e-9)
}

func TestPageRankSumIsOne(t *testing.T) {
	g, _ := chainGraph(t)
	job := newJob(registry.CompPageRank)
	result, err := PageRank(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{"maximum_supersteps": 20.0, "damping_factor": 0.85})
	require.NoError(t, err)
	ranks := result.([]float64)

	var sum float64
	for _, r := range ranks {
		sum += r
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestIRankSumIsInvariantAcrossCollectionCounts(t *testing.T) {
	g := graphstore.New()
	idx := map[string]uint32{}
	for _, key := range []string{"c1/a", "c1/b", "c2/c"} {
		i, err := g.AddVertex([]byte(key))
		require.NoError(t, err)
		idx[key] = i
	}
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.AddEdge(idx["c1/a"], idx["c1/b"]))
	require.NoError(t, g.AddEdge(idx["c1/b"], idx["c2/c"]))
	require.NoError(t, g.Seal())

	// Two source collections (c1 with 2 members, c2 with 1), so the
	// initial weights sum to 2, not 1: 0.5 + 0.5 + 1.0.
	job := newJob(registry.CompIRank)
	result, err := IRank(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{"maximum_supersteps": 20.0, "damping_factor": 0.85})
	require.NoError(t, err)
	ranks := result.([]float64)

	var sum float64
	for _, r := range ranks {
		sum += r
	}
	assert.InDelta(t, 2.0, sum, 1e-6)
}

func TestEmptyGraphAlgorithmsSucceed(t *testing.T) {
	g := graphstore.New()
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.Seal())

	job := newJob(registry.CompPageRank)
	result, err := PageRank(context.Background(), job, g, columnstore.New(0), Params{})
	require.NoError(t, err)
	assert.Empty(t, result.([]float64))
}

func TestLabelPropagationConvergesToSmallestLabel(t *testing.T) {
	g := graphstore.New()
	idx := make([]uint32, 5)
	for i := 0; i < 5; i++ {
		v, err := g.AddVertex([]byte{byte('1' + i)})
		require.NoError(t, err)
		idx[i] = v
	}
	require.NoError(t, g.SealVertices())
	for i := 0; i < 4; i++ {
		require.NoError(t, g.AddEdge(idx[i], idx[i+1]))
	}
	require.NoError(t, g.Seal())

	job := newJob(registry.CompLabelPropagation)
	result, err := LabelPropagation(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{
		"start_label_attribute": "@id",
		"synchronous":           true,
		"maximum_supersteps":    10.0,
	})
	require.NoError(t, err)
	labels := result.([]uint64)
	for _, l := range labels {
		assert.Equal(t, uint64(0), l)
	}
}

func TestAttributePropagationForwardOneStep(t *testing.T) {
	g := graphstore.New()
	v1, _ := g.AddVertex([]byte("v1"))
	v2, _ := g.AddVertex([]byte("v2"))
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.AddEdge(v1, v2))
	require.NoError(t, g.Seal())

	columns := columnstore.New(g.VertexCount())
	require.NoError(t, columns.DeclareString("label", ""))
	require.NoError(t, columns.SetString("label", uint64(v1), "x"))
	require.NoError(t, columns.SetString("label", uint64(v2), "y"))

	job := newJob(registry.CompAttributePropagation)
	result, err := AttributePropagation(context.Background(), job, g, columns, Params{
		"start_label_attribute": "label",
		"synchronous":           true,
		"maximum_supersteps":    1.0,
	})
	require.NoError(t, err)
	sets := result.([][]string)
	assert.ElementsMatch(t, []string{"x"}, sets[v1])
	assert.ElementsMatch(t, []string{"x", "y"}, sets[v2])
}

func TestAttributePropagationMonotonicity(t *testing.T) {
	g, idx := chainGraph(t)
	columns := columnstore.New(g.VertexCount())
	require.NoError(t, columns.DeclareString("label", ""))
	for key, i := range idx {
		require.NoError(t, columns.SetString("label", uint64(i), key))
	}

	job := newJob(registry.CompAttributePropagation)
	result, err := AttributePropagation(context.Background(), job, g, columns, Params{
		"start_label_attribute": "label",
		"synchronous":           true,
		"maximum_supersteps":    5.0,
	})
	require.NoError(t, err)
	sets := result.([][]string)
	assert.GreaterOrEqual(t, len(sets[idx["B"]]), 1)
}

func TestAggregateComponentsCountsValues(t *testing.T) {
	g, idx := chainGraph(t)
	columns := columnstore.New(g.VertexCount())
	require.NoError(t, columns.DeclareString("kind", "unknown"))
	require.NoError(t, columns.SetString("kind", uint64(idx["A"]), "person"))
	require.NoError(t, columns.SetString("kind", uint64(idx["B"]), "person"))
	require.NoError(t, columns.SetString("kind", uint64(idx["C"]), "org"))
	require.NoError(t, columns.SetString("kind", uint64(idx["D"]), "org"))

	labels := []uint32{0, 0, 2, 2}
	job := newJob(registry.CompAggregateComponents)
	result, err := AggregateComponents(context.Background(), job, g, columns, Params{
		"attribute":         "kind",
		"component_labels": labels,
	})
	require.NoError(t, err)
	dist := result.(map[uint32]Distribution)
	assert.Equal(t, 2, dist[0]["person"])
	assert.Equal(t, 2, dist[2]["org"])
}

func TestCustomFunctionBoxesResultVector(t *testing.T) {
	g := graphstore.New()
	_, _ = g.AddVertex([]byte("a"))
	_, _ = g.AddVertex([]byte("b"))
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.Seal())

	job := newJob(registry.CompCustom)
	result, err := Custom(context.Background(), job, g, columnstore.New(g.VertexCount()), Params{
		"function":    "return {0: 1.5}",
		"interpreter": fakeInterpreter{mapping: map[uint32]float64{0: 1.5}},
	})
	require.NoError(t, err)
	vec := result.([]float64)
	assert.InDelta(t, 1.5, vec[0], 1e-9)
	assert.True(t, math.IsNaN(vec[1]))
}

type fakeInterpreter struct {
	mapping map[uint32]float64
}

func (f fakeInterpreter) Run(ctx context.Context, function string, graph ReadOnlyGraph) (map[uint32]float64, error) {
	return f.mapping, nil
}
