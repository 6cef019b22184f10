package api

import (
	"net/http"

	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/observability"
)

// writeError reports err on the wire, mapping its Code to both the
// error_code integer and the HTTP status, per pkg/errors' taxonomy.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	writeJSON(w, errors.HTTPStatus(err), errorResponse{
		ErrorCode:    errors.NumericCode(err),
		ErrorMessage: errors.UserMessage(err),
	})
}

func parseID(s string) (uint64, error) {
	var v uint64
	if s == "" {
		return 0, errors.New(errors.CodeInvalidInput, "missing id")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New(errors.CodeInvalidInput, "invalid id %q", s)
		}
		v = v*10 + uint64(r-'0')
	}
	return v, nil
}
