// Package algo implements the Engine's algorithm suite: weakly/strongly
// connected components, component aggregation, PageRank and iRank, label
// and attribute propagation, and the custom-function bridge.
//
// Every algorithm shares one signature (Func) and is looked up by name
// through the small registry in registry.go rather than a hand-written
// switch in the job runner — comp_type strings map directly to
// constructors. All algorithms poll job.IsCancelled() at superstep
// boundaries and report progress in batches of at least N/1000 vertices,
// per ProgressBatchSize.
package algo

import (
	"github.com/matzehuels/graphengine/pkg/errors"
)

// Params is the decoded, algorithm-specific portion of a request body.
// Each algorithm documents the keys it reads.
type Params map[string]any

func (p Params) Float64(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, errors.New(errors.CodeInvalidInput, "%q must be a number", key)
	}
	return f, nil
}

func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, errors.New(errors.CodeInvalidInput, "%q must be an integer", key)
	}
}

func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.New(errors.CodeInvalidInput, "%q must be a boolean", key)
	}
	return b, nil
}

func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "%q must be a string", key)
	}
	return s, nil
}

// ProgressBatchSize returns the coarseness progress should be ticked at:
// once per superstep, or once per N/1000 vertices, whichever is coarser.
func ProgressBatchSize(n uint64) uint64 {
	batch := n / 1000
	if batch == 0 {
		return 1
	}
	return batch
}
