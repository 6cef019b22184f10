// Package graphstore implements the engine's in-memory, RAM-resident
// directed graph: dense-indexed vertices with a 64-bit identity hash, and a
// CSR (Compressed Sparse Row) edge index built lazily once the graph is
// sealed.
//
// A Graph moves through three states, enforced by method preconditions
// rather than by separate types (mirroring the teacher's error-per-operation
// style in pkg/dag):
//
//	Building-vertices -> Vertices-sealed -> Sealed
//
// Vertices may only be added in Building-vertices. Edges may only be added
// once vertices are sealed (edge endpoints reference vertex indices, which
// must be stable before any edge can name them). The graph itself is sealed
// once loading completes; after that it is immutable and safe for
// concurrent reads (read methods take a shared read lock) — only the CSR
// indices are still built on-demand, guarded by a sync.Once each.
package graphstore

import (
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/matzehuels/graphengine/pkg/errors"
)

// State is the graph's build-lifecycle state.
type State int

const (
	// BuildingVertices accepts AddVertex calls only.
	BuildingVertices State = iota
	// VerticesSealed accepts AddEdge calls only; vertex indices are now stable.
	VerticesSealed
	// Sealed is immutable and safe for concurrent reads.
	Sealed
)

func (s State) String() string {
	switch s {
	case BuildingVertices:
		return "building-vertices"
	case VerticesSealed:
		return "vertices-sealed"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// exceptionalBase is the start of the reserved hash range minted for
// vertices whose natural xxh3 hash collides with an existing vertex.
// Natural hashes are masked into [0, 2^63) by clearing their top bit;
// exceptional hashes are minted upward from [2^63, 2^64), so the two
// ranges can never collide with each other, and exceptional minting is
// exceedingly unlikely to ever exhaust its own range in practice.
const exceptionalBase uint64 = 1 << 63

// Graph is a single directed graph instance held by the registry.
//
// Graph is safe for concurrent use: AddVertex/AddEdge/SealVertices/Seal
// serialize through mu during the build phases; read methods take mu's
// shared read lock in every state, so once Sealed (the underlying slices are
// never mutated again) concurrent readers never block one another.
type Graph struct {
	mu    sync.RWMutex
	state State

	keys        [][]byte
	hashes      []uint64
	hashToIndex map[uint64]uint32
	keyToIndex  map[string]uint32
	nextExcept  uint64

	edgeFrom []uint32
	edgeTo   []uint32

	csrFromOnce sync.Once
	csrFrom     *CSR
	csrToOnce   sync.Once
	csrTo       *CSR
}

// New creates an empty Graph in the Building-vertices state.
func New() *Graph {
	return &Graph{
		hashToIndex: make(map[uint64]uint32),
		keyToIndex:  make(map[string]uint32),
		nextExcept:  exceptionalBase,
	}
}

// State returns the graph's current build state.
func (g *Graph) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// AddVertex inserts a vertex identified by key and returns its dense index.
// The vertex's 64-bit identity hash is xxh3 of key; if that hash collides
// with an already-inserted, distinct key, an exceptional hash is minted
// instead so every vertex's hash remains injective.
//
// Returns an InvalidInput error if the graph is not in Building-vertices.
func (g *Graph) AddVertex(key []byte) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != BuildingVertices {
		return 0, errors.New(errors.CodeInvalidInput, "cannot add vertex: graph is %s", g.state)
	}

	hash := xxh3.Hash(key) &^ exceptionalBase
	if existing, ok := g.hashToIndex[hash]; ok && !keyEqual(g.keys[existing], key) {
		hash = g.mintExceptional()
	}

	idx := uint32(len(g.keys))
	g.keys = append(g.keys, append([]byte(nil), key...))
	g.hashes = append(g.hashes, hash)
	g.hashToIndex[hash] = idx
	g.keyToIndex[string(key)] = idx
	return idx, nil
}

func keyEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mintExceptional returns the next unused hash in the exceptional range.
// Caller must hold mu.
func (g *Graph) mintExceptional() uint64 {
	for {
		h := g.nextExcept
		g.nextExcept++
		if _, taken := g.hashToIndex[h]; !taken {
			return h
		}
	}
}

// SealVertices transitions the graph from Building-vertices to
// Vertices-sealed, after which vertex indices are stable and AddEdge is
// permitted.
func (g *Graph) SealVertices() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != BuildingVertices {
		return errors.New(errors.CodeInvalidInput, "cannot seal vertices: graph is %s", g.state)
	}
	g.state = VerticesSealed
	return nil
}

// AddEdge appends a directed edge from the vertex at index from to the
// vertex at index to. Both indices must be within [0, VertexCount()).
func (g *Graph) AddEdge(from, to uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != VerticesSealed {
		return errors.New(errors.CodeInvalidInput, "cannot add edge: graph is %s", g.state)
	}
	n := uint32(len(g.keys))
	if from >= n || to >= n {
		return errors.New(errors.CodeInvalidInput, "edge endpoint out of range: %d -> %d (vertex count %d)", from, to, n)
	}
	g.edgeFrom = append(g.edgeFrom, from)
	g.edgeTo = append(g.edgeTo, to)
	return nil
}

// Seal transitions the graph from Vertices-sealed to Sealed. After Seal
// returns nil, the graph is immutable; read methods still take the shared
// read lock, which no writer holds any more.
func (g *Graph) Seal() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != VerticesSealed {
		return errors.New(errors.CodeInvalidInput, "cannot seal: graph is %s", g.state)
	}
	g.state = Sealed
	return nil
}

// VertexCount returns the number of vertices in the graph.
func (g *Graph) VertexCount() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return uint64(len(g.keys))
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return uint64(len(g.edgeFrom))
}

// VertexKey returns the original key bytes for the vertex at idx.
func (g *Graph) VertexKey(idx uint32) []byte {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.keys[idx]
}

// VertexHash returns the 64-bit identity hash for the vertex at idx.
func (g *Graph) VertexHash(idx uint32) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hashes[idx]
}

// IndexForHash returns the dense vertex index for a given identity hash.
func (g *Graph) IndexForHash(hash uint64) (uint32, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.hashToIndex[hash]
	return idx, ok
}

// ResolveKey returns the dense vertex index originally inserted under key.
// This is the resolution path edge endpoints use: looking a key up by its
// natural xxh3 hash would resolve to the wrong vertex whenever that key was
// the one that triggered exceptional-hash minting, so endpoint resolution
// goes through the original key bytes directly instead.
func (g *Graph) ResolveKey(key []byte) (uint32, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.keyToIndex[string(key)]
	return idx, ok
}

// ByFrom returns the CSR index grouping edges by source vertex, building it
// on first use in Θ(V+E) time via a two-pass counting sort. Only valid once
// the graph is Sealed.
func (g *Graph) ByFrom() *CSR {
	g.csrFromOnce.Do(func() {
		g.mu.RLock()
		defer g.mu.RUnlock()
		g.csrFrom = buildCSR(uint32(len(g.keys)), g.edgeFrom, g.edgeTo)
	})
	return g.csrFrom
}

// ByTo returns the CSR index grouping edges by destination vertex, built
// lazily like ByFrom.
func (g *Graph) ByTo() *CSR {
	g.csrToOnce.Do(func() {
		g.mu.RLock()
		defer g.mu.RUnlock()
		g.csrTo = buildCSR(uint32(len(g.keys)), g.edgeTo, g.edgeFrom)
	})
	return g.csrTo
}

// MemoryUsage reports a budgetary estimate of the graph's resident memory,
// in bytes, broken down per vertex and per edge so a caller can reason about
// the cost of loading a larger graph before attempting it.
type MemoryUsage struct {
	PerVertexBytes uint64
	PerEdgeBytes   uint64
	TotalBytes     uint64
}

// perVertexBytes estimates the steady-state per-vertex overhead: the 8-byte
// hash, the 4-byte dense index slot, and the hash-map bucket entry backing
// IndexForHash. It excludes the variable-length key bytes themselves, which
// the caller already accounted for when choosing vertex keys.
const perVertexBytes = 8 + 4 + 24

// perEdgeBytes estimates the steady-state per-edge overhead across the
// build-time edge list and both lazily-built CSR indices (each CSR stores
// one uint32 per edge plus a uint32 offset per vertex, amortized per edge).
const perEdgeBytes = 4 + 4 + 4 + 4

// MemoryUsage computes the estimate described above.
func (g *Graph) MemoryUsage() MemoryUsage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v := uint64(len(g.keys))
	e := uint64(len(g.edgeFrom))
	return MemoryUsage{
		PerVertexBytes: perVertexBytes,
		PerEdgeBytes:   perEdgeBytes,
		TotalBytes:     v*perVertexBytes + e*perEdgeBytes,
	}
}

// Cancelled is a flag algorithms poll at superstep boundaries to detect
// cooperative cancellation requested through the job registry. It is safe
// for concurrent use: one goroutine calls Cancel, any number of goroutines
// call IsSet.
type Cancelled struct {
	flag atomic.Bool
}

// Cancel marks the flag as set. Idempotent.
func (c *Cancelled) Cancel() { c.flag.Store(true) }

// IsSet reports whether Cancel has been called.
func (c *Cancelled) IsSet() bool { return c.flag.Load() }
