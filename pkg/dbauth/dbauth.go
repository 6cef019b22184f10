// Package dbauth mints JWTs for the caller's externally validated username,
// for use against the document database.
//
// The engine never validates credentials itself (spec: an external auth
// collaborator validates the bearer token and hands back a username). Once
// that username is known, Signer signs a token with the engine's own shared
// JWT secret, asserting that username in its preferred_username claim. The
// API server mints one before opening each database client, but the token is
// not attached to the requests the loader or result writer sends.
package dbauth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matzehuels/graphengine/pkg/cache"
)

// Signer mints short-lived JWTs asserting a validated username, caching the
// signed token so repeated requests within the TTL window reuse it instead
// of re-signing on every call.
type Signer struct {
	secret []byte
	ttl    time.Duration
	cache  cache.Cache
	keyer  cache.Keyer
}

// NewSigner creates a Signer using secret to sign tokens that assert a
// subject for ttl. c may be nil, in which case every call re-signs.
func NewSigner(secret []byte, ttl time.Duration, c cache.Cache) *Signer {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Signer{secret: secret, ttl: ttl, cache: c, keyer: cache.NewDefaultKeyer()}
}

// claims is the JWT payload asserting the validated username.
type claims struct {
	jwt.RegisteredClaims
	Username string `json:"preferred_username"`
}

// Sign returns a bearer token asserting username as the database-facing
// identity, valid for the Signer's TTL. Signed tokens are cached under
// cache.TTLDBAuth so concurrent requests from the same user share one token.
func (s *Signer) Sign(ctx context.Context, username string) (string, error) {
	key := s.keyer.DBAuthKey(username)
	if data, hit, _ := s.cache.Get(ctx, key); hit {
		return string(data), nil
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: username,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	_ = s.cache.Set(ctx, key, []byte(signed), cache.TTLDBAuth)
	return signed, nil
}
