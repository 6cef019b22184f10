// Package cache provides a small, swappable caching layer used by the
// loader (to memoize named-graph descriptor resolution against the
// document database) and by the outbound database-auth helper (to avoid
// re-signing a JWT on every request). It mirrors the teacher's
// Cache/Keyer split: callers depend on the interfaces, never on a
// concrete backend.
package cache

import (
	"context"
	"time"
)

// Cache is a generic byte-value store with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds namespaced cache keys so unrelated components never collide
// on the same underlying backend.
type Keyer interface {
	// DescriptorKey keys the resolved (vertex_collections, edge_collections)
	// tuple for a named graph, so repeated POST /v1/loaddata calls with the
	// same graph_name skip re-resolving it against the database.
	DescriptorKey(graphName string) string

	// DBAuthKey keys a signed outbound database JWT for a given username, so
	// it is re-signed only once per TTL window rather than on every request.
	DBAuthKey(username string) string
}

const (
	// TTLDescriptor bounds how long a resolved named-graph descriptor is trusted.
	TTLDescriptor = 5 * time.Minute
	// TTLDBAuth bounds how long a re-signed outbound database JWT is reused.
	TTLDBAuth = 10 * time.Minute
)
