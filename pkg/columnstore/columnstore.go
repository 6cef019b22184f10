// Package columnstore implements the engine's columnar vertex-attribute
// store: one densely-indexed, typed vector per declared attribute, aligned
// with graphstore's vertex indices. Reading an attribute for a vertex that
// was never explicitly set returns the column's declared default rather
// than an error — attribute coverage is expected to be partial (e.g. only
// some vertices in a loaded collection carry a given field).
package columnstore

import (
	"sync"

	"github.com/matzehuels/graphengine/pkg/errors"
)

// Type identifies a column's storage type.
type Type int

const (
	TypeString Type = iota
	TypeF64
	TypeI64
	TypeU64
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeF64:
		return "f64"
	case TypeI64:
		return "i64"
	case TypeU64:
		return "u64"
	default:
		return "unknown"
	}
}

// column holds one attribute's values. Its slices grow on Set up to the
// highest index written; indices past that read as the column default.
type column struct {
	typ Type

	strings []string
	f64s    []float64
	i64s    []int64
	u64s    []uint64

	defaultString string
	defaultF64    float64
	defaultI64    int64
	defaultU64    uint64
}

// Store is the full set of declared attribute columns for one graph.
// Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	vertexCount uint64
	columns     map[string]*column
}

// New creates an empty Store sized for vertexCount vertices.
func New(vertexCount uint64) *Store {
	return &Store{vertexCount: vertexCount, columns: make(map[string]*column)}
}

func (s *Store) ensureColumn(name string, typ Type) (*column, error) {
	if c, ok := s.columns[name]; ok {
		if c.typ != typ {
			return nil, errors.New(errors.CodeInvalidInput, "column %q is %s, not %s", name, c.typ, typ)
		}
		return c, nil
	}
	c := &column{typ: typ}
	s.columns[name] = c
	return c, nil
}

// DeclareString declares (or confirms) a string column with the given default.
func (s *Store) DeclareString(name, def string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ensureColumn(name, TypeString)
	if err != nil {
		return err
	}
	c.defaultString = def
	return nil
}

// DeclareF64 declares (or confirms) a float64 column with the given default.
func (s *Store) DeclareF64(name string, def float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ensureColumn(name, TypeF64)
	if err != nil {
		return err
	}
	c.defaultF64 = def
	return nil
}

// DeclareI64 declares (or confirms) an int64 column with the given default.
func (s *Store) DeclareI64(name string, def int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ensureColumn(name, TypeI64)
	if err != nil {
		return err
	}
	c.defaultI64 = def
	return nil
}

// DeclareU64 declares (or confirms) a uint64 column with the given default.
func (s *Store) DeclareU64(name string, def uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ensureColumn(name, TypeU64)
	if err != nil {
		return err
	}
	c.defaultU64 = def
	return nil
}

// SetString sets the string value at idx in column name.
func (s *Store) SetString(name string, idx uint64, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.column(name, TypeString)
	if err != nil {
		return err
	}
	for uint64(len(c.strings)) <= idx {
		c.strings = append(c.strings, c.defaultString)
	}
	c.strings[idx] = value
	return nil
}

// GetString returns the string value at idx in column name, or its default
// if idx was never set.
func (s *Store) GetString(name string, idx uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.column(name, TypeString)
	if err != nil {
		return "", err
	}
	if idx >= uint64(len(c.strings)) {
		return c.defaultString, nil
	}
	return c.strings[idx], nil
}

// SetF64 sets the float64 value at idx in column name.
func (s *Store) SetF64(name string, idx uint64, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.column(name, TypeF64)
	if err != nil {
		return err
	}
	for uint64(len(c.f64s)) <= idx {
		c.f64s = append(c.f64s, c.defaultF64)
	}
	c.f64s[idx] = value
	return nil
}

// GetF64 returns the float64 value at idx in column name, or its default.
func (s *Store) GetF64(name string, idx uint64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.column(name, TypeF64)
	if err != nil {
		return 0, err
	}
	if idx >= uint64(len(c.f64s)) {
		return c.defaultF64, nil
	}
	return c.f64s[idx], nil
}

// SetI64 sets the int64 value at idx in column name.
func (s *Store) SetI64(name string, idx uint64, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.column(name, TypeI64)
	if err != nil {
		return err
	}
	for uint64(len(c.i64s)) <= idx {
		c.i64s = append(c.i64s, c.defaultI64)
	}
	c.i64s[idx] = value
	return nil
}

// GetI64 returns the int64 value at idx in column name, or its default.
func (s *Store) GetI64(name string, idx uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.column(name, TypeI64)
	if err != nil {
		return 0, err
	}
	if idx >= uint64(len(c.i64s)) {
		return c.defaultI64, nil
	}
	return c.i64s[idx], nil
}

// SetU64 sets the uint64 value at idx in column name.
func (s *Store) SetU64(name string, idx uint64, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.column(name, TypeU64)
	if err != nil {
		return err
	}
	for uint64(len(c.u64s)) <= idx {
		c.u64s = append(c.u64s, c.defaultU64)
	}
	c.u64s[idx] = value
	return nil
}

// GetU64 returns the uint64 value at idx in column name, or its default.
func (s *Store) GetU64(name string, idx uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.column(name, TypeU64)
	if err != nil {
		return 0, err
	}
	if idx >= uint64(len(c.u64s)) {
		return c.defaultU64, nil
	}
	return c.u64s[idx], nil
}

// column looks up name and checks it has the expected type. Caller must hold s.mu.
func (s *Store) column(name string, typ Type) (*column, error) {
	c, ok := s.columns[name]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "no such column %q", name)
	}
	if c.typ != typ {
		return nil, errors.New(errors.CodeInvalidInput, "column %q is %s, not %s", name, c.typ, typ)
	}
	return c, nil
}

// ColumnNames returns the declared column names, in no particular order.
func (s *Store) ColumnNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.columns))
	for name := range s.columns {
		names = append(names, name)
	}
	return names
}

// ColumnType returns the declared type of a column.
func (s *Store) ColumnType(name string) (Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.columns[name]
	if !ok {
		return 0, errors.New(errors.CodeNotFound, "no such column %q", name)
	}
	return c.typ, nil
}
