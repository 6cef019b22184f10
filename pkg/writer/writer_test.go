package writer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphengine/pkg/dbclient"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

type recordingClient struct {
	mu      sync.Mutex
	written map[string]dbclient.Document
	failAll bool
}

func newRecordingClient() *recordingClient {
	return &recordingClient{written: map[string]dbclient.Document{}}
}

func (c *recordingClient) ResolveGraphDescriptor(ctx context.Context, graphName string) (dbclient.GraphDescriptor, error) {
	return dbclient.GraphDescriptor{}, nil
}

func (c *recordingClient) StreamCollection(ctx context.Context, collection string, batchSize int, fn dbclient.BatchFunc) error {
	return nil
}

func (c *recordingClient) UpsertBatch(ctx context.Context, collection string, docs []dbclient.Document) error {
	if c.failAll {
		return errors.New(errors.CodeStoreError, "forced failure")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range docs {
		c.written[doc["_key"].(string)] = doc
	}
	return nil
}

func (c *recordingClient) Close(ctx context.Context) error { return nil }

func buildGraph(t *testing.T, keys ...string) *graphstore.Graph {
	t.Helper()
	g := graphstore.New()
	for _, k := range keys {
		_, err := g.AddVertex([]byte(k))
		require.NoError(t, err)
	}
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.Seal())
	return g
}

func TestWriteBuildsVertexKeyedDocuments(t *testing.T) {
	g := buildGraph(t, "v/1", "v/2", "v/3")
	client := newRecordingClient()
	w := New(client)

	err := w.Write(context.Background(), g, Request{
		TargetCollection: "results",
		AttributeNames:   []string{"pagerank"},
		Vectors:          [][]float64{{0.1, 0.2, 0.7}},
		BatchSize:        2,
	})
	require.NoError(t, err)
	require.Len(t, client.written, 3)
	assert.InDelta(t, 0.7, client.written["v/3"]["pagerank"], 1e-9)
}

func TestWriteSupportsMultipleAttributes(t *testing.T) {
	g := buildGraph(t, "v/1", "v/2")
	client := newRecordingClient()
	w := New(client)

	err := w.Write(context.Background(), g, Request{
		TargetCollection: "results",
		AttributeNames:   []string{"pagerank", "irank"},
		Vectors:          [][]float64{{0.5, 0.5}, {1.0, 2.0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, client.written["v/1"]["pagerank"])
	assert.Equal(t, 2.0, client.written["v/2"]["irank"])
}

func TestValidateRejectsMismatchedAttributeCount(t *testing.T) {
	err := Request{AttributeNames: []string{"a", "b"}, Vectors: [][]float64{{1}}}.Validate()
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestValidateRejectsUnequalVectorLengths(t *testing.T) {
	err := Request{
		AttributeNames: []string{"a", "b"},
		Vectors:        [][]float64{{1, 2}, {1}},
	}.Validate()
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestWriteRejectsVectorLengthMismatchWithGraph(t *testing.T) {
	g := buildGraph(t, "v/1")
	w := New(newRecordingClient())
	err := w.Write(context.Background(), g, Request{
		TargetCollection: "results",
		AttributeNames:   []string{"a"},
		Vectors:          [][]float64{{1, 2}},
	})
	assert.True(t, errors.Is(err, errors.CodeStoreError))
}

func TestWritePropagatesUpsertFailure(t *testing.T) {
	g := buildGraph(t, "v/1")
	client := newRecordingClient()
	client.failAll = true
	w := New(client)

	err := w.Write(context.Background(), g, Request{
		TargetCollection: "results",
		AttributeNames:   []string{"a"},
		Vectors:          [][]float64{{1}},
	})
	assert.True(t, errors.Is(err, errors.CodeStoreError))
}

func TestWriteIsIdempotentOnRerun(t *testing.T) {
	g := buildGraph(t, "v/1", "v/2")
	client := newRecordingClient()
	w := New(client)

	req := Request{TargetCollection: "results", AttributeNames: []string{"a"}, Vectors: [][]float64{{1, 2}}}
	require.NoError(t, w.Write(context.Background(), g, req))
	require.NoError(t, w.Write(context.Background(), g, req))
	assert.Len(t, client.written, 2)
}
