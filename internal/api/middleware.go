package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/observability"
)

type contextKey string

const usernameContextKey contextKey = "username"

// usernameFromContext returns the authenticated username set by
// authMiddleware. Only safe to call within a request already past that
// middleware.
func usernameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(usernameContextKey).(string)
	return v
}

// authMiddleware validates the Authorization header via s.Auth and stores
// the resulting username on the request context. Requests without a valid
// bearer token are rejected with 401 before reaching any handler.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, r, errors.New(errors.CodeUnauthorized, "missing or malformed Authorization header"))
			return
		}
		username, err := s.Auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, errors.Wrap(errors.CodeUnauthorized, err, "bearer token validation failed"))
			return
		}
		ctx := context.WithValue(r.Context(), usernameContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDMiddleware stamps every request with a trace id, grounding
// request-scoped correlation in the same way the teacher used google/uuid
// for artifact ids.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r)
	})
}

// observabilityMiddleware reports request/response/error events to the
// registered pkg/observability HTTPHooks (Prometheus-backed in production).
func observabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
