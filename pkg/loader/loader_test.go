package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/dbclient"
	"github.com/matzehuels/graphengine/pkg/errors"
)

type fakeClient struct {
	descriptor dbclient.GraphDescriptor
	documents  map[string][]dbclient.Document
}

func (f *fakeClient) ResolveGraphDescriptor(ctx context.Context, graphName string) (dbclient.GraphDescriptor, error) {
	return f.descriptor, nil
}

func (f *fakeClient) StreamCollection(ctx context.Context, collection string, batchSize int, fn dbclient.BatchFunc) error {
	docs := f.documents[collection]
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		if err := fn(docs[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) UpsertBatch(ctx context.Context, collection string, docs []dbclient.Document) error {
	return nil
}

func (f *fakeClient) Close(ctx context.Context) error { return nil }

func newJob() *registry.Job {
	r := registry.New()
	job, _ := r.CreateLoadJob()
	return job
}

func TestValidateRequiresGraphNameOrExplicitCollections(t *testing.T) {
	err := Request{}.Validate()
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	err = Request{GraphName: "g"}.Validate()
	assert.NoError(t, err)

	err = Request{VertexCollections: []string{"v"}, EdgeCollections: []string{"e"}}.Validate()
	assert.NoError(t, err)

	err = Request{VertexCollections: []string{"v"}}.Validate()
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestLoadTinyGraphFromExplicitCollections(t *testing.T) {
	client := &fakeClient{
		documents: map[string][]dbclient.Document{
			"people": {
				{"_id": "people/a"},
				{"_id": "people/b"},
				{"_id": "people/c"},
				{"_id": "people/d"},
			},
			"knows": {
				{"_from": "people/a", "_to": "people/b"},
				{"_from": "people/a", "_to": "people/c"},
				{"_from": "people/b", "_to": "people/d"},
			},
		},
	}

	l := New(client, nil)
	job := newJob()
	graph, _, err := l.Load(context.Background(), job, Request{
		VertexCollections: []string{"people"},
		EdgeCollections:   []string{"knows"},
		BatchSize:         2,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), graph.VertexCount())
	assert.Equal(t, uint64(3), graph.EdgeCount())
}

func TestLoadResolvesNamedGraphDescriptor(t *testing.T) {
	client := &fakeClient{
		descriptor: dbclient.GraphDescriptor{VertexCollections: []string{"v"}, EdgeCollections: []string{"e"}},
		documents: map[string][]dbclient.Document{
			"v": {{"_id": "v/1"}},
			"e": {},
		},
	}

	l := New(client, nil)
	job := newJob()
	graph, _, err := l.Load(context.Background(), job, Request{GraphName: "social", BatchSize: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), graph.VertexCount())
}

func TestLoadPopulatesVertexAttributes(t *testing.T) {
	client := &fakeClient{
		documents: map[string][]dbclient.Document{
			"v": {
				{"_id": "v/1", "name": "alice", "score": 4.5},
				{"_id": "v/2", "name": "bob"},
			},
			"e": {},
		},
	}

	l := New(client, nil)
	job := newJob()
	_, columns, err := l.Load(context.Background(), job, Request{
		VertexCollections: []string{"v"},
		EdgeCollections:   []string{"e"},
		VertexAttributes: []AttributeSpec{
			{Name: "name", Type: columnstore.TypeString},
			{Name: "score", Type: columnstore.TypeF64},
		},
		BatchSize: 10,
	})
	require.NoError(t, err)

	name, err := columns.GetString("name", 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	score, err := columns.GetF64("score", 0)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, score, 1e-9)

	// bob never set "score"; reads the declared default.
	score, err = columns.GetF64("score", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestLoadReportsUnresolvableEdgeEndpoints(t *testing.T) {
	client := &fakeClient{
		documents: map[string][]dbclient.Document{
			"v": {{"_id": "v/1"}},
			"e": {{"_from": "v/1", "_to": "v/missing"}},
		},
	}

	l := New(client, nil)
	job := newJob()
	_, _, err := l.Load(context.Background(), job, Request{
		VertexCollections: []string{"v"},
		EdgeCollections:   []string{"e"},
		BatchSize:         10,
	})
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 1, loadErr.Failed)
}

func TestLoadHonorsCancellation(t *testing.T) {
	client := &fakeClient{
		documents: map[string][]dbclient.Document{
			"v": {{"_id": "v/1"}, {"_id": "v/2"}},
			"e": {},
		},
	}

	l := New(client, nil)
	job := newJob()
	job.RequestCancel()
	_, _, err := l.Load(context.Background(), job, Request{
		VertexCollections: []string{"v"},
		EdgeCollections:   []string{"e"},
		BatchSize:         1,
	})
	assert.True(t, errors.Is(err, errors.CodeCancelled))
}
