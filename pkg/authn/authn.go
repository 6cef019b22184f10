// Package authn wires the Engine's bearer-token validation to an external
// auth service. Validation itself is out of scope (spec §1 treats it as an
// assumed collaborator: "bearer-token validation returns a username"); this
// package only delegates a token to that collaborator and relays its
// verdict, matching the CLI's "wire flags into the components this repo
// owns" mandate rather than implementing an auth protocol.
package authn

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/matzehuels/graphengine/pkg/errors"
)

// ServiceAuthenticator validates a bearer token by forwarding it to an
// external auth service over HTTP, expecting back {"username": "..."} on
// success or a non-2xx status otherwise.
type ServiceAuthenticator struct {
	endpoint string
	client   *http.Client
}

// NewServiceAuthenticator targets the auth service at endpoint.
func NewServiceAuthenticator(endpoint string) *ServiceAuthenticator {
	return &ServiceAuthenticator{endpoint: endpoint, client: &http.Client{Timeout: 5 * time.Second}}
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Username string `json:"username"`
}

func (a *ServiceAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(validateRequest{Token: token})
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "marshal auth-service request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "build auth-service request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.CodeUnauthorized, err, "reach auth service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.CodeUnauthorized, "auth service rejected token (status %d)", resp.StatusCode)
	}

	var out validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(errors.CodeUnauthorized, err, "decode auth-service response")
	}
	if out.Username == "" {
		return "", errors.New(errors.CodeUnauthorized, "auth service returned no username")
	}
	return out.Username, nil
}

// StaticAuthenticator accepts every non-empty bearer token and uses it
// verbatim as the username. Used when --auth-service is not configured,
// for local development against a document database with its own access
// control.
type StaticAuthenticator struct{}

func (StaticAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New(errors.CodeUnauthorized, "missing bearer token")
	}
	return token, nil
}
