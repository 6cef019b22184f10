package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphengine/pkg/metrics"
)

// NewRouter wires every endpoint onto a chi.Mux, with auth applied to
// everything except the unauthenticated meta endpoints.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(observabilityMiddleware)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/api-version", s.handleAPIVersion)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/graphs", s.handleListGraphs)
			r.Get("/graphs/{id}", s.handleGetGraph)
			r.Delete("/graphs/{id}", s.handleDeleteGraph)
			r.Post("/loaddata", s.handleLoadData)

			r.Get("/jobs", s.handleListJobs)
			r.Get("/jobs/{id}", s.handleGetJob)
			r.Delete("/jobs/{id}", s.handleDeleteJob)

			r.Post("/wcc", s.handleWCC)
			r.Post("/scc", s.handleSCC)
			r.Post("/aggregatecomponents", s.handleAggregateComponents)
			r.Post("/pagerank", s.handlePageRank)
			r.Post("/irank", s.handleIRank)
			r.Post("/labelpropagation", s.handleLabelPropagation)
			r.Post("/attributepropagation", s.handleAttributePropagation)
			r.Post("/python", s.handleCustomFunction)

			r.Post("/storeresults", s.handleStoreResults)

			r.Delete("/shutdown", s.handleShutdown)
		})
	})

	return r
}
