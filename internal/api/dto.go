package api

import (
	"strconv"

	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/errors"
)

// id encodes a uint64 as a decimal string for large-number safety on the
// wire, per the canonicalized snake_case JSON convention.
func id(v uint64) string { return strconv.FormatUint(v, 10) }

// errorResponse is embedded in every response that can fail.
type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// jobResponse is the uniform job resource shape.
type jobResponse struct {
	JobID               string `json:"job_id"`
	GraphID             string `json:"graph_id"`
	Total               uint64 `json:"total"`
	Progress            uint64 `json:"progress"`
	MemoryUsage         uint64 `json:"memory_usage"`
	CompType            string `json:"comp_type"`
	RuntimeMicroseconds int64  `json:"runtime_in_microseconds"`
	Result              any    `json:"result,omitempty"`
	errorResponse
}

// graphResponse is the uniform graph resource shape.
type graphResponse struct {
	GraphID           string `json:"graph_id"`
	NumberOfVertices  uint64 `json:"number_of_vertices"`
	NumberOfEdges     uint64 `json:"number_of_edges"`
	MemoryUsage       uint64 `json:"memory_usage"`
	MemoryPerVertex   uint64 `json:"memory_per_vertex"`
	MemoryPerEdge     uint64 `json:"memory_per_edge"`
}

// loadDataRequest is the decoded body of POST /v1/loaddata.
type loadDataRequest struct {
	Database             string   `json:"database"`
	GraphName             string   `json:"graph_name"`
	VertexCollections     []string `json:"vertex_collections"`
	EdgeCollections       []string `json:"edge_collections"`
	VertexAttributes      []string `json:"vertex_attributes"`
	VertexAttributeTypes  []string `json:"vertex_attribute_types"`
	Parallelism           int      `json:"parallelism"`
	BatchSize             int      `json:"batch_size"`
}

type graphScopedRequest struct {
	GraphID string `json:"graph_id"`
}

type pageRankRequest struct {
	GraphID            string  `json:"graph_id"`
	MaximumSupersteps  int     `json:"maximum_supersteps"`
	DampingFactor      float64 `json:"damping_factor"`
}

type labelPropagationRequest struct {
	GraphID              string `json:"graph_id"`
	StartLabelAttribute  string `json:"start_label_attribute"`
	Synchronous          bool   `json:"synchronous"`
	RandomTiebreak       bool   `json:"random_tiebreak"`
	MaximumSupersteps    int    `json:"maximum_supersteps"`
}

type attributePropagationRequest struct {
	GraphID              string `json:"graph_id"`
	StartLabelAttribute  string `json:"start_label_attribute"`
	Synchronous          bool   `json:"synchronous"`
	Backwards            bool   `json:"backwards"`
	MaximumSupersteps    int    `json:"maximum_supersteps"`
}

type aggregateComponentsRequest struct {
	GraphID        string `json:"graph_id"`
	ComponentJobID string `json:"component_job_id"`
	Attribute      string `json:"attribute"`
}

type customFunctionRequest struct {
	GraphID    string `json:"graph_id"`
	Function   string `json:"function"`
	UseCugraph bool   `json:"use_cugraph"`
}

type storeResultsRequest struct {
	JobIDs           []string `json:"job_ids"`
	AttributeNames   []string `json:"attribute_names"`
	Database         string   `json:"database"`
	TargetCollection string   `json:"target_collection"`
	Parallelism      int      `json:"parallelism"`
	BatchSize        int      `json:"batch_size"`
}

type apiVersionResponse struct {
	APIVersion string `json:"api_version"`
}

// toJobResponse renders a job snapshot on the wire. A non-terminal job
// reports zero-value error fields and an omitted result.
func toJobResponse(snap registry.Snapshot) jobResponse {
	resp := jobResponse{
		JobID:               id(snap.JobID),
		GraphID:             id(snap.GraphID),
		Total:               snap.Total,
		Progress:            snap.Progress,
		MemoryUsage:         snap.MemoryUsage,
		CompType:            string(snap.CompType),
		RuntimeMicroseconds: snap.RuntimeMicros,
	}
	if snap.Done {
		if snap.ErrCode != "" {
			resp.errorResponse = errorResponse{
				ErrorCode:    errors.NumericCode(errors.New(snap.ErrCode, "")),
				ErrorMessage: snap.ErrMsg,
			}
		} else {
			resp.Result = snap.Result
		}
	}
	return resp
}

// toGraphResponse renders a registered graph handle on the wire.
func toGraphResponse(h registry.GraphHandle) graphResponse {
	mem := h.Graph.MemoryUsage()
	return graphResponse{
		GraphID:          id(h.ID),
		NumberOfVertices: h.Graph.VertexCount(),
		NumberOfEdges:    h.Graph.EdgeCount(),
		MemoryUsage:      mem.TotalBytes,
		MemoryPerVertex:  mem.PerVertexBytes,
		MemoryPerEdge:    mem.PerEdgeBytes,
	}
}
