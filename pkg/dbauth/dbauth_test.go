package dbauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphengine/pkg/cache"
)

func TestSignAssertsUsername(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Minute, cache.NewNullCache())

	token, err := s.Sign(context.Background(), "alice")
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)

	c := parsed.Claims.(*claims)
	require.Equal(t, "alice", c.Username)
}

func TestSignReusesCachedToken(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	s := NewSigner([]byte("secret"), time.Minute, c)

	first, err := s.Sign(context.Background(), "bob")
	require.NoError(t, err)
	second, err := s.Sign(context.Background(), "bob")
	require.NoError(t, err)

	require.Equal(t, first, second)
}
