package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/loader"
)

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	handles := s.Registry.ListGraphs()
	out := make([]graphResponse, 0, len(handles))
	for _, h := range handles {
		out = append(out, toGraphResponse(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	graphID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	handle, err := s.Registry.GetGraph(graphID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGraphResponse(handle))
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	graphID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Registry.DeleteGraph(graphID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadData(w http.ResponseWriter, r *http.Request) {
	var body loadDataRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	attrs := make([]loader.AttributeSpec, len(body.VertexAttributes))
	for i, name := range body.VertexAttributes {
		typ := columnstore.TypeF64
		if i < len(body.VertexAttributeTypes) {
			parsed, err := parseColumnType(body.VertexAttributeTypes[i])
			if err != nil {
				writeError(w, r, err)
				return
			}
			typ = parsed
		}
		attrs[i] = loader.AttributeSpec{Name: name, Type: typ}
	}

	req := loader.Request{
		Database:          body.Database,
		GraphName:         body.GraphName,
		VertexCollections: body.VertexCollections,
		EdgeCollections:   body.EdgeCollections,
		VertexAttributes:  attrs,
		Parallelism:       body.Parallelism,
		BatchSize:         body.BatchSize,
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	client, err := s.openDBClient(r.Context(), body.Database)
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, graphID := s.Registry.CreateLoadJob()
	l := loader.New(client, s.Cache)

	s.Runner.Submit(r.Context(), job, func(ctx context.Context, job *registry.Job) (any, uint64, error) {
		graph, columns, err := l.Load(ctx, job, req)
		if err != nil {
			s.Registry.AbandonGraph(graphID)
			return nil, 0, err
		}
		if err := s.Registry.RegisterGraph(graphID, graph, columns); err != nil {
			return nil, 0, err
		}
		return nil, graph.MemoryUsage().TotalBytes, nil
	})

	writeJSON(w, http.StatusOK, toJobResponse(job.Snapshot()))
}

func parseColumnType(name string) (columnstore.Type, error) {
	switch name {
	case "string":
		return columnstore.TypeString, nil
	case "float", "f64", "double":
		return columnstore.TypeF64, nil
	case "int", "i64", "integer":
		return columnstore.TypeI64, nil
	case "uint", "u64":
		return columnstore.TypeU64, nil
	default:
		return 0, errors.New(errors.CodeInvalidInput, "unknown vertex_attribute_type %q", name)
	}
}
