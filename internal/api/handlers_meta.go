package api

import (
	"context"
	"net/http"
	"time"

	"github.com/matzehuels/graphengine/pkg/buildinfo"
)

func (s *Server) handleAPIVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiVersionResponse{APIVersion: buildinfo.APIVersion})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.RequestShutdown(ctx)
	}()
}
