package api

import (
	"context"
	"net/http"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/algo"
	"github.com/matzehuels/graphengine/pkg/errors"
)

// submitAlgorithm resolves graph_id, allocates a job of compType against
// it, and submits the algorithm registered under compType to run
// asynchronously. The job id is returned to the caller immediately.
func (s *Server) submitAlgorithm(w http.ResponseWriter, r *http.Request, compType registry.CompType, graphIDStr string, params algo.Params) {
	graphID, err := parseID(graphIDStr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	handle, err := s.Registry.GetGraph(graphID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fn, err := algo.Get(compType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	job, err := s.Registry.CreateJob(compType, graphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.Runner.Submit(r.Context(), job, func(ctx context.Context, job *registry.Job) (any, uint64, error) {
		result, err := fn(ctx, job, handle.Graph, handle.Columns, params)
		if err != nil {
			return nil, 0, err
		}
		return result, resultMemoryUsage(result), nil
	})

	writeJSON(w, http.StatusOK, toJobResponse(job.Snapshot()))
}

// resultMemoryUsage estimates the byte size of a result vector, reported
// back on the job's memory_usage field.
func resultMemoryUsage(result any) uint64 {
	switch v := result.(type) {
	case []uint32:
		return uint64(len(v)) * 4
	case []int32:
		return uint64(len(v)) * 4
	case []float64:
		return uint64(len(v)) * 8
	case [][]string:
		var total uint64
		for _, labels := range v {
			for _, l := range labels {
				total += uint64(len(l))
			}
		}
		return total
	default:
		return 0
	}
}

func (s *Server) handleWCC(w http.ResponseWriter, r *http.Request) {
	var body graphScopedRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	s.submitAlgorithm(w, r, registry.CompWCC, body.GraphID, nil)
}

func (s *Server) handleSCC(w http.ResponseWriter, r *http.Request) {
	var body graphScopedRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	s.submitAlgorithm(w, r, registry.CompSCC, body.GraphID, nil)
}

func (s *Server) handlePageRank(w http.ResponseWriter, r *http.Request) {
	var body pageRankRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	params := algo.Params{
		"maximum_supersteps": float64(body.MaximumSupersteps),
		"damping_factor":     body.DampingFactor,
	}
	s.submitAlgorithm(w, r, registry.CompPageRank, body.GraphID, params)
}

func (s *Server) handleIRank(w http.ResponseWriter, r *http.Request) {
	var body pageRankRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	params := algo.Params{
		"maximum_supersteps": float64(body.MaximumSupersteps),
		"damping_factor":     body.DampingFactor,
	}
	s.submitAlgorithm(w, r, registry.CompIRank, body.GraphID, params)
}

func (s *Server) handleLabelPropagation(w http.ResponseWriter, r *http.Request) {
	var body labelPropagationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	params := algo.Params{
		"start_label_attribute": body.StartLabelAttribute,
		"synchronous":           body.Synchronous,
		"random_tiebreak":       body.RandomTiebreak,
		"maximum_supersteps":    float64(body.MaximumSupersteps),
	}
	s.submitAlgorithm(w, r, registry.CompLabelPropagation, body.GraphID, params)
}

func (s *Server) handleAttributePropagation(w http.ResponseWriter, r *http.Request) {
	var body attributePropagationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	params := algo.Params{
		"start_label_attribute": body.StartLabelAttribute,
		"synchronous":           body.Synchronous,
		"backwards":             body.Backwards,
		"maximum_supersteps":    float64(body.MaximumSupersteps),
	}
	s.submitAlgorithm(w, r, registry.CompAttributePropagation, body.GraphID, params)
}

func (s *Server) handleAggregateComponents(w http.ResponseWriter, r *http.Request) {
	var body aggregateComponentsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	componentJobID, err := parseID(body.ComponentJobID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	componentJob, err := s.Registry.GetJob(componentJobID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := componentJob.Snapshot()
	if !snap.Done || snap.ErrCode != "" {
		writeError(w, r, errors.New(errors.CodeInvalidInput, "component_job_id %d has no completed result", componentJobID))
		return
	}

	params := algo.Params{
		"attribute":        body.Attribute,
		"component_labels": snap.Result,
	}
	s.submitAlgorithm(w, r, registry.CompAggregateComponents, body.GraphID, params)
}

func (s *Server) handleCustomFunction(w http.ResponseWriter, r *http.Request) {
	var body customFunctionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if s.Interpreter == nil {
		writeError(w, r, errors.New(errors.CodeInternal, "no interpreter configured"))
		return
	}
	params := algo.Params{
		"function":    body.Function,
		"interpreter": s.Interpreter,
	}
	s.submitAlgorithm(w, r, registry.CompCustom, body.GraphID, params)
}
