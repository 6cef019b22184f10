// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about the graph registry, job execution, and
// the HTTP API.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This keeps the registry/job-runner/algorithm packages dependency-free from
// any specific observability framework; pkg/metrics supplies a
// Prometheus-backed implementation that main wires in at startup.
//
//	func main() {
//	    observability.SetJobHooks(metrics.JobHooks())
//	    observability.SetRegistryHooks(metrics.RegistryHooks())
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Job Hooks
// =============================================================================

// JobHooks receives lifecycle events for a single job (load, algorithm
// computation, or result store) as it runs on the worker pool.
type JobHooks interface {
	OnJobSubmit(ctx context.Context, compType string)
	OnJobComplete(ctx context.Context, compType string, duration time.Duration, err error)
	OnSuperstep(ctx context.Context, compType string, superstep int, duration time.Duration)
}

// =============================================================================
// Registry Hooks
// =============================================================================

// RegistryHooks receives events from graph/job registry operations.
type RegistryHooks interface {
	OnGraphSealed(ctx context.Context, graphID uint64, vertexCount, edgeCount uint64)
	OnGraphDropped(ctx context.Context, graphID uint64)
	OnGraphInUse(ctx context.Context, graphID uint64, refCount int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API's inbound request handling.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopJobHooks is a no-op implementation of JobHooks.
type NoopJobHooks struct{}

func (NoopJobHooks) OnJobSubmit(context.Context, string)                        {}
func (NoopJobHooks) OnJobComplete(context.Context, string, time.Duration, error) {}
func (NoopJobHooks) OnSuperstep(context.Context, string, int, time.Duration)     {}

// NoopRegistryHooks is a no-op implementation of RegistryHooks.
type NoopRegistryHooks struct{}

func (NoopRegistryHooks) OnGraphSealed(context.Context, uint64, uint64, uint64) {}
func (NoopRegistryHooks) OnGraphDropped(context.Context, uint64)                {}
func (NoopRegistryHooks) OnGraphInUse(context.Context, uint64, int)             {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	jobHooks      JobHooks      = NoopJobHooks{}
	registryHooks RegistryHooks = NoopRegistryHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetJobHooks registers custom job hooks. Call once at startup.
func SetJobHooks(h JobHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		jobHooks = h
	}
}

// SetRegistryHooks registers custom registry hooks. Call once at startup.
func SetRegistryHooks(h RegistryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		registryHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. Call once at startup.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Job returns the registered job hooks.
func Job() JobHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return jobHooks
}

// Registry returns the registered registry hooks.
func Registry() RegistryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return registryHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults. Primarily for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	jobHooks = NoopJobHooks{}
	registryHooks = NoopRegistryHooks{}
	httpHooks = NoopHTTPHooks{}
}
