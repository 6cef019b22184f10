// Package loader builds a graphstore.Graph and columnstore.Store from
// documents pulled out of the external document database, implementing the
// Engine's LoadData job.
//
// Vertices are always fully streamed and sealed before any edge batch
// begins resolving endpoints — the two-phase graph-build state in
// pkg/graphstore enforces this at runtime (AddEdge is rejected until
// SealVertices has been called), so the loader simply
// never calls AddEdge until every vertex collection has been drained.
package loader

import (
	"context"
	"encoding/json"
	"runtime"
	"sync"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/cache"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/dbclient"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

// defaultBatchSize is the document batch size used when a request doesn't
// specify one.
const defaultBatchSize = 1000

// defaultQueueDepth bounds the number of in-flight document batches the
// loader will hold in memory at once, across all collections being
// streamed concurrently.
const defaultQueueDepth = 200

// maxSampledFailures bounds how many offending document ids a LoadError
// reports.
const maxSampledFailures = 20

// AttributeSpec pairs a vertex attribute name with its declared storage
// type, as supplied in the loaddata request.
type AttributeSpec struct {
	Name string
	Type columnstore.Type
}

// Request is the parsed form of POST /v1/loaddata.
type Request struct {
	Database          string
	GraphName         string
	VertexCollections []string
	EdgeCollections   []string
	VertexAttributes  []AttributeSpec
	Parallelism       int
	BatchSize         int
}

// Validate enforces the loaddata precondition: a named graph, or a
// non-empty pair of explicit vertex/edge collection lists.
func (r Request) Validate() error {
	hasNamedGraph := r.GraphName != ""
	hasExplicit := len(r.VertexCollections) > 0 && len(r.EdgeCollections) > 0
	if !hasNamedGraph && !hasExplicit {
		return errors.New(errors.CodeInvalidInput,
			"Either specify the graph_name or ensure that vertex_collections and edge_collections are not empty.")
	}
	return nil
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

// LoadError reports a load-time failure with a bounded sample of the
// document ids that could not be resolved.
type LoadError struct {
	Reason  string
	Failed  int
	Samples []string
}

func (e *LoadError) Error() string {
	return errors.New(errors.CodeLoadError, "%s (%d failed, e.g. %v)", e.Reason, e.Failed, e.Samples).Error()
}

// Unwrap exposes the failure as a CodeLoadError error, so errors.GetCode
// and errors.Is classify a LoadError as LOAD_ERROR.
func (e *LoadError) Unwrap() error {
	return errors.New(errors.CodeLoadError, "%s (%d failed, e.g. %v)", e.Reason, e.Failed, e.Samples)
}

// Loader pulls documents from a Client and builds a Graph/Store pair.
type Loader struct {
	client dbclient.Client
	cache  cache.Cache
	keyer  cache.Keyer
}

// New creates a Loader backed by client, with named-graph descriptor
// resolution memoized in c. c may be nil, in which case every load
// re-resolves the descriptor.
func New(client dbclient.Client, c cache.Cache) *Loader {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Loader{client: client, cache: c, keyer: cache.NewDefaultKeyer()}
}

// Load runs the full LoadData job: resolve collections, stream vertices,
// seal them, stream edges, seal the graph. Progress is reported on job once
// per document batch; cancellation is checked between batches.
func (l *Loader) Load(ctx context.Context, job *registry.Job, req Request) (*graphstore.Graph, *columnstore.Store, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	vertexCollections, edgeCollections, err := l.resolveCollections(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	graph := graphstore.New()
	columns := columnstore.New(0)
	for _, spec := range req.VertexAttributes {
		if err := declareColumn(columns, spec); err != nil {
			return nil, nil, err
		}
	}

	if err := l.loadVertices(ctx, job, req, vertexCollections, graph, columns); err != nil {
		return nil, nil, err
	}
	if err := graph.SealVertices(); err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "seal vertices")
	}

	if err := l.loadEdges(ctx, job, req, edgeCollections, graph); err != nil {
		return nil, nil, err
	}
	if err := graph.Seal(); err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "seal graph")
	}

	return graph, columns, nil
}

func declareColumn(columns *columnstore.Store, spec AttributeSpec) error {
	switch spec.Type {
	case columnstore.TypeString:
		return columns.DeclareString(spec.Name, "")
	case columnstore.TypeF64:
		return columns.DeclareF64(spec.Name, 0)
	case columnstore.TypeI64:
		return columns.DeclareI64(spec.Name, 0)
	case columnstore.TypeU64:
		return columns.DeclareU64(spec.Name, 0)
	default:
		return errors.New(errors.CodeInvalidInput, "unknown vertex attribute type for %q", spec.Name)
	}
}

func (l *Loader) resolveCollections(ctx context.Context, req Request) ([]string, []string, error) {
	if req.GraphName == "" {
		return req.VertexCollections, req.EdgeCollections, nil
	}

	key := l.keyer.DescriptorKey(req.GraphName)
	if data, hit, _ := l.cache.Get(ctx, key); hit {
		var desc dbclient.GraphDescriptor
		if err := json.Unmarshal(data, &desc); err == nil {
			return desc.VertexCollections, desc.EdgeCollections, nil
		}
	}

	desc, err := l.client.ResolveGraphDescriptor(ctx, req.GraphName)
	if err != nil {
		return nil, nil, err
	}
	if encoded, err := json.Marshal(desc); err == nil {
		_ = l.cache.Set(ctx, key, encoded, cache.TTLDescriptor)
	}
	return desc.VertexCollections, desc.EdgeCollections, nil
}

func (l *Loader) loadVertices(ctx context.Context, job *registry.Job, req Request, collections []string, graph *graphstore.Graph, columns *columnstore.Store) error {
	var mu sync.Mutex
	var failedIDs []string
	var failedCount int

	recordFailure := func(id string) {
		mu.Lock()
		defer mu.Unlock()
		failedCount++
		if len(failedIDs) < maxSampledFailures {
			failedIDs = append(failedIDs, id)
		}
	}

	queue := make(chan struct{}, defaultQueueDepth)
	sem := make(chan struct{}, req.parallelism())
	var wg sync.WaitGroup
	var streamErr error
	var streamErrOnce sync.Once

	for _, collection := range collections {
		collection := collection
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			err := l.client.StreamCollection(ctx, collection, req.batchSize(), func(docs []dbclient.Document) error {
				if job.IsCancelled() {
					return errors.New(errors.CodeCancelled, "load cancelled")
				}
				queue <- struct{}{}
				defer func() { <-queue }()

				for _, doc := range docs {
					id, ok := doc["_id"].(string)
					if !ok {
						recordFailure("<missing _id>")
						continue
					}
					idx, err := graph.AddVertex([]byte(id))
					if err != nil {
						return err
					}
					for _, spec := range req.VertexAttributes {
						if err := setColumn(columns, spec, idx, doc[spec.Name]); err != nil {
							recordFailure(id)
						}
					}
				}
				job.AddProgress(uint64(len(docs)))
				return nil
			})
			if err != nil {
				streamErrOnce.Do(func() { streamErr = err })
			}
		}()
	}
	wg.Wait()

	if streamErr != nil {
		return streamErr
	}
	if failedCount > 0 {
		return &LoadError{Reason: "failed to load vertex documents", Failed: failedCount, Samples: failedIDs}
	}
	return nil
}

func (l *Loader) loadEdges(ctx context.Context, job *registry.Job, req Request, collections []string, graph *graphstore.Graph) error {
	var mu sync.Mutex
	var failedIDs []string
	var failedCount int

	recordFailure := func(id string) {
		mu.Lock()
		defer mu.Unlock()
		failedCount++
		if len(failedIDs) < maxSampledFailures {
			failedIDs = append(failedIDs, id)
		}
	}

	queue := make(chan struct{}, defaultQueueDepth)
	sem := make(chan struct{}, req.parallelism())
	var wg sync.WaitGroup
	var streamErr error
	var streamErrOnce sync.Once

	for _, collection := range collections {
		collection := collection
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			err := l.client.StreamCollection(ctx, collection, req.batchSize(), func(docs []dbclient.Document) error {
				if job.IsCancelled() {
					return errors.New(errors.CodeCancelled, "load cancelled")
				}
				queue <- struct{}{}
				defer func() { <-queue }()

				for _, doc := range docs {
					from, fromOK := doc["_from"].(string)
					to, toOK := doc["_to"].(string)
					if !fromOK || !toOK {
						recordFailure("<missing _from/_to>")
						continue
					}
					fromIdx, ok := graph.ResolveKey([]byte(from))
					if !ok {
						recordFailure(from)
						continue
					}
					toIdx, ok := graph.ResolveKey([]byte(to))
					if !ok {
						recordFailure(to)
						continue
					}
					if err := graph.AddEdge(fromIdx, toIdx); err != nil {
						recordFailure(from + "->" + to)
					}
				}
				job.AddProgress(uint64(len(docs)))
				return nil
			})
			if err != nil {
				streamErrOnce.Do(func() { streamErr = err })
			}
		}()
	}
	wg.Wait()

	if streamErr != nil {
		return streamErr
	}
	if failedCount > 0 {
		return &LoadError{Reason: "failed to resolve edge endpoints", Failed: failedCount, Samples: failedIDs}
	}
	return nil
}

func setColumn(columns *columnstore.Store, spec AttributeSpec, idx uint32, value any) error {
	if value == nil {
		return nil
	}
	switch spec.Type {
	case columnstore.TypeString:
		s, ok := value.(string)
		if !ok {
			return errors.New(errors.CodeInvalidInput, "attribute %q is not a string", spec.Name)
		}
		return columns.SetString(spec.Name, uint64(idx), s)
	case columnstore.TypeF64:
		f, ok := toFloat64(value)
		if !ok {
			return errors.New(errors.CodeInvalidInput, "attribute %q is not numeric", spec.Name)
		}
		return columns.SetF64(spec.Name, uint64(idx), f)
	case columnstore.TypeI64:
		f, ok := toFloat64(value)
		if !ok {
			return errors.New(errors.CodeInvalidInput, "attribute %q is not numeric", spec.Name)
		}
		return columns.SetI64(spec.Name, uint64(idx), int64(f))
	case columnstore.TypeU64:
		f, ok := toFloat64(value)
		if !ok {
			return errors.New(errors.CodeInvalidInput, "attribute %q is not numeric", spec.Name)
		}
		return columns.SetU64(spec.Name, uint64(idx), uint64(f))
	default:
		return errors.New(errors.CodeInvalidInput, "unknown vertex attribute type for %q", spec.Name)
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
