package algo

import (
	"context"
	"strings"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func init() {
	Register(registry.CompIRank, IRank)
}

// IRank is PageRank seeded with a per-collection uniform initial weight
// instead of a graph-uniform 1/N: vertex v starts at 1/Nc, where Nc is the
// number of vertices sharing v's source-collection label (the segment of
// its stored key before "/"). runPageRank's restart and dangling terms are
// both weighted by this initial distribution rather than uniform 1/N, which
// is what keeps the rank sum invariant at the number of source collections
// across iterations instead of drifting toward 1.
func IRank(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error) {
	maxSupersteps, damping, err := pageRankParams(params)
	if err != nil {
		return nil, err
	}

	n := graph.VertexCount()
	collectionOf := make([]string, n)
	collectionCount := map[string]uint64{}
	for idx := uint64(0); idx < n; idx++ {
		key := string(graph.VertexKey(uint32(idx)))
		collection := key
		if slash := strings.IndexByte(key, '/'); slash >= 0 {
			collection = key[:slash]
		}
		collectionOf[idx] = collection
		collectionCount[collection]++
	}

	initial := make([]float64, n)
	for idx := uint64(0); idx < n; idx++ {
		initial[idx] = 1.0 / float64(collectionCount[collectionOf[idx]])
	}

	return runPageRank(ctx, job, graph, initial, maxSupersteps, damping)
}
