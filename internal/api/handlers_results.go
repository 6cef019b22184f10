package api

import (
	"context"
	"net/http"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/writer"
)

func (s *Server) handleStoreResults(w http.ResponseWriter, r *http.Request) {
	var body storeResultsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if len(body.JobIDs) == 0 {
		writeError(w, r, errors.New(errors.CodeInvalidInput, "storeresults requires at least one job_id"))
		return
	}

	var graphID uint64
	vectors := make([][]float64, len(body.JobIDs))
	for i, idStr := range body.JobIDs {
		jobID, err := parseID(idStr)
		if err != nil {
			writeError(w, r, err)
			return
		}
		job, err := s.Registry.GetJob(jobID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		snap := job.Snapshot()
		if !snap.Done || snap.ErrCode != "" {
			writeError(w, r, errors.New(errors.CodeInvalidInput, "job %d has no completed result", jobID))
			return
		}
		vector, ok := snap.Result.([]float64)
		if !ok {
			writeError(w, r, errors.New(errors.CodeInvalidInput, "job %d did not produce a numeric result vector", jobID))
			return
		}
		if i == 0 {
			graphID = snap.GraphID
		} else if snap.GraphID != graphID {
			writeError(w, r, errors.New(errors.CodeInvalidInput, "all referenced jobs must share the same graph_id"))
			return
		}
		vectors[i] = vector
	}

	handle, err := s.Registry.GetGraph(graphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	client, err := s.openDBClient(r.Context(), body.Database)
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := s.Registry.CreateJob(registry.CompStoreResults, graphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := writer.Request{
		TargetCollection: body.TargetCollection,
		AttributeNames:   body.AttributeNames,
		Vectors:          vectors,
		Parallelism:      body.Parallelism,
		BatchSize:        body.BatchSize,
	}
	w2 := writer.New(client)

	job.SetTotal(uint64(len(vectors)))
	s.Runner.Submit(r.Context(), job, func(ctx context.Context, job *registry.Job) (any, uint64, error) {
		if err := w2.Write(ctx, handle.Graph, req); err != nil {
			return nil, 0, err
		}
		job.SetProgress(uint64(len(vectors)))
		return nil, 0, nil
	})

	writeJSON(w, http.StatusOK, toJobResponse(job.Snapshot()))
}
