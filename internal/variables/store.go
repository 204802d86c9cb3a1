// Package variables provides the key/value store a runner shares between its
// setup and measure operations.
package variables

import (
	"context"
	"maps"
)

// Store holds string values by name. Setup operations record identifiers
// (index names, document ids) that measured operations read back.
type Store interface {
	Set(key, value string)
	Get(key string) (string, bool)
	// MustGet returns *MissingError for an unset key.
	MustGet(key string) (string, error)
	// GetAll returns a copy of every value.
	GetAll() map[string]string
	Clear()
}

// MissingError is returned by MustGet for an unset key.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return "variable " + e.Key + " is not set"
}

// NewStore returns an empty in-memory Store. It is not safe for concurrent
// use; a runner executes its operations one at a time.
func NewStore() Store {
	return &memStore{values: map[string]string{}}
}

type memStore struct {
	values map[string]string
}

func (m *memStore) Set(key, value string) { m.values[key] = value }

func (m *memStore) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memStore) MustGet(key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", &MissingError{Key: key}
}

func (m *memStore) GetAll() map[string]string { return maps.Clone(m.values) }

func (m *memStore) Clear() { clear(m.values) }

type contextKey struct{}

// NewContext attaches store to ctx.
func NewContext(ctx context.Context, store Store) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext returns the store attached to ctx, or nil.
func FromContext(ctx context.Context) Store {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(contextKey{}).(Store)
	return s
}
