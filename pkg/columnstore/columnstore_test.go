package columnstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphengine/pkg/errors"
)

func TestStringColumnDefaultsWhenUnset(t *testing.T) {
	s := New(10)
	require.NoError(t, s.DeclareString("label", "unknown"))

	v, err := s.GetString("label", 3)
	require.NoError(t, err)
	assert.Equal(t, "unknown", v)

	require.NoError(t, s.SetString("label", 3, "person"))
	v, err = s.GetString("label", 3)
	require.NoError(t, err)
	assert.Equal(t, "person", v)

	// a neighboring, never-set index still reports the default.
	v, err = s.GetString("label", 4)
	require.NoError(t, err)
	assert.Equal(t, "unknown", v)
}

func TestF64ColumnRoundTrip(t *testing.T) {
	s := New(5)
	require.NoError(t, s.DeclareF64("rank", 0.0))
	require.NoError(t, s.SetF64("rank", 2, 0.42))

	v, err := s.GetF64("rank", 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, v, 1e-9)
}

func TestTypeMismatchRejected(t *testing.T) {
	s := New(5)
	require.NoError(t, s.DeclareF64("rank", 0.0))

	err := s.SetString("rank", 0, "nope")
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestUnknownColumnReturnsNotFound(t *testing.T) {
	s := New(5)
	_, err := s.GetU64("missing", 0)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestColumnNamesAndType(t *testing.T) {
	s := New(5)
	require.NoError(t, s.DeclareI64("component", -1))
	require.NoError(t, s.DeclareU64("degree", 0))

	names := s.ColumnNames()
	assert.ElementsMatch(t, []string{"component", "degree"}, names)

	typ, err := s.ColumnType("component")
	require.NoError(t, err)
	assert.Equal(t, TypeI64, typ)
}
