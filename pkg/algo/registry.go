package algo

import (
	"context"
	"sync"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

// Func is the common signature every algorithm implements: given a sealed
// graph, its attribute columns, and request params, produce a result. The
// job is handed through so implementations can report progress and poll
// cancellation.
type Func func(ctx context.Context, job *registry.Job, graph *graphstore.Graph, columns *columnstore.Store, params Params) (any, error)

var (
	mu         sync.RWMutex
	registered = map[registry.CompType]Func{}
)

// Register associates compType with fn. Called from each algorithm's init.
func Register(compType registry.CompType, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	registered[compType] = fn
}

// Get looks up the algorithm registered for compType.
func Get(compType registry.CompType) (Func, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registered[compType]
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput, "no algorithm registered for %q", compType)
	}
	return fn, nil
}
