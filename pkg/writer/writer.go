// Package writer implements the Engine's result writer: given one or more
// job result vectors and a matching attribute name per vector, build
// per-vertex documents keyed by the graph's stored vertex key and
// batch-upsert them into a target collection.
package writer

import (
	"context"
	"runtime"
	"sync"

	"github.com/matzehuels/graphengine/pkg/dbclient"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

// defaultBatchSize matches the spec's default batch of 10,000 documents.
const defaultBatchSize = 10_000

// Request is the parsed form of POST /v1/storeresults, after job results
// have already been resolved to their result vectors by the caller.
type Request struct {
	TargetCollection string
	AttributeNames   []string
	Vectors          [][]float64
	Parallelism      int
	BatchSize        int
}

func (r Request) parallelism() int {
	if r.Parallelism > 0 {
		return r.Parallelism
	}
	return runtime.NumCPU()
}

func (r Request) batchSize() int {
	if r.BatchSize > 0 {
		return r.BatchSize
	}
	return defaultBatchSize
}

// Validate checks the storeresults precondition: one attribute name per
// vector, and every vector the same length.
func (r Request) Validate() error {
	if len(r.AttributeNames) != len(r.Vectors) {
		return errors.New(errors.CodeInvalidInput, "job_ids and attribute_names must have the same length")
	}
	if len(r.Vectors) == 0 {
		return nil
	}
	n := len(r.Vectors[0])
	for _, v := range r.Vectors[1:] {
		if len(v) != n {
			return errors.New(errors.CodeInvalidInput, "all referenced jobs must produce equal-length result vectors")
		}
	}
	return nil
}

// Writer batch-upserts result vectors into a document database via Client.
type Writer struct {
	client dbclient.Client
}

// New creates a Writer backed by client.
func New(client dbclient.Client) *Writer {
	return &Writer{client: client}
}

// Write builds {_key: <vertex key>, <attr>: <value>, ...} documents for
// every vertex and upserts them in parallel batches, making reruns
// idempotent.
func (w *Writer) Write(ctx context.Context, graph *graphstore.Graph, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if len(req.Vectors) == 0 {
		return nil
	}

	n := len(req.Vectors[0])
	if uint64(n) != graph.VertexCount() {
		return errors.New(errors.CodeStoreError, "result vector length %d does not match graph vertex count %d", n, graph.VertexCount())
	}

	batchSize := req.batchSize()
	sem := make(chan struct{}, req.parallelism())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		start, end := start, end

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			docs := make([]dbclient.Document, 0, end-start)
			for idx := start; idx < end; idx++ {
				doc := dbclient.Document{"_key": string(graph.VertexKey(uint32(idx)))}
				for i, attr := range req.AttributeNames {
					doc[attr] = req.Vectors[i][idx]
				}
				docs = append(docs, doc)
			}
			if err := w.client.UpsertBatch(ctx, req.TargetCollection, docs); err != nil {
				recordErr(err)
			}
		}()
	}
	wg.Wait()

	return firstErr
}
