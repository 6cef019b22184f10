// Package api implements the Engine's HTTP/JSON surface: request parsing
// into typed requests, dispatch into the registry/job-runner/loader/
// algorithm/writer components, and JSON responses.
//
// Authentication and the document-database connection are external
// collaborators, consumed here through small interfaces (Authenticator,
// DBClientFactory) rather than concrete types, matching the spec's
// "assumed collaborator" framing for both.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphengine/internal/jobrunner"
	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/algo"
	"github.com/matzehuels/graphengine/pkg/cache"
	"github.com/matzehuels/graphengine/pkg/dbauth"
	"github.com/matzehuels/graphengine/pkg/dbclient"
	"github.com/matzehuels/graphengine/pkg/errors"
)

// Authenticator validates a bearer token and returns the authenticated
// username, or a CodeUnauthorized error.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (username string, err error)
}

// DBClientFactory opens a document-database collaborator for the named
// database. It receives no credential: the token Server.Signer mints in
// openDBClient is not passed to it.
type DBClientFactory func(ctx context.Context, database string) (dbclient.Client, error)

// Server holds every collaborator the HTTP handlers dispatch into.
type Server struct {
	Registry    *registry.Registry
	Runner      *jobrunner.Runner
	Auth        Authenticator
	Signer      *dbauth.Signer
	DBClient    DBClientFactory
	Interpreter algo.Interpreter
	Cache       cache.Cache
	Logger      *log.Logger

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// New creates a Server. logger defaults to log.Default() if nil; cache
// defaults to a no-op cache if nil.
func New(reg *registry.Registry, runner *jobrunner.Runner, auth Authenticator, signer *dbauth.Signer, dbClient DBClientFactory, interp algo.Interpreter, c cache.Cache, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Server{
		Registry:    reg,
		Runner:      runner,
		Auth:        auth,
		Signer:      signer,
		DBClient:    dbClient,
		Interpreter: interp,
		Cache:       c,
		Logger:      logger,
		shutdown:    make(chan struct{}),
	}
}

// ShuttingDown reports whether DELETE /v1/shutdown has been received.
func (s *Server) ShuttingDown() bool {
	select {
	case <-s.shutdown:
		return true
	default:
		return false
	}
}

// RequestShutdown signals ShuttingDown and drains in-flight jobs.
func (s *Server) RequestShutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	done := make(chan struct{})
	go func() {
		s.Runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Logger.Warn("shutdown deadline exceeded with jobs still in flight")
	case <-time.After(30 * time.Second):
		s.Logger.Warn("shutdown timed out with jobs still in flight")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New(errors.CodeInvalidInput, "malformed request body: %v", err)
	}
	return nil
}

// openDBClient signs a token for the authenticated username (failing with
// CodeUnauthorized if signing fails) and opens a database collaborator for
// the job about to run against it. The signed token is discarded; outbound
// database requests are not signed with it.
func (s *Server) openDBClient(ctx context.Context, database string) (dbclient.Client, error) {
	username := usernameFromContext(ctx)
	if s.Signer != nil {
		if _, err := s.Signer.Sign(ctx, username); err != nil {
			return nil, errors.Wrap(errors.CodeUnauthorized, err, "sign outbound database request")
		}
	}
	return s.DBClient(ctx, database)
}
