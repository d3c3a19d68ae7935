// Package docstore is the document store the coordinator persists users and
// complaints in: per-collection documents addressed by id, equality queries,
// and transactions spanning several documents.
package docstore

import (
	"context"
	"errors"
	"reflect"
)

var (
	// ErrNotFound is returned when a document id is absent from a collection.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Fields is the body of a document. Values are JSON-compatible: strings,
// bools, numbers, nil, []any and map[string]any.
type Fields map[string]any

// Document is a stored record together with its id.
type Document struct {
	ID     string
	Fields Fields
}

// Filter is an equality predicate on a top-level field. A nil Value matches
// documents whose field is null.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Ops is the set of per-document operations, available both on the store and
// inside a transaction.
type Ops interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Set replaces the document, creating it when absent.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Create inserts the document and fails with ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, collection, id string, fields Fields) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields Fields) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

// TxFunc is the body of a transaction. Every read and write must go through
// tx and ctx so the backend can scope them to the transaction.
type TxFunc func(ctx context.Context, tx Ops) error

// Store is a document store backend.
type Store interface {
	Ops
	NewID(collection string) string
	// RunInTransaction runs fn atomically: either all of its writes commit or
	// none do. Documents read through tx are locked against concurrent
	// transactions until fn returns.
	RunInTransaction(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the string at key, or "" when absent or not a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// StringPtr returns the string at key, or nil when absent or null.
func (f Fields) StringPtr(key string) *string {
	s, ok := f[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// BoolPtr returns the bool at key, or nil when absent or null.
func (f Fields) BoolPtr(key string) *bool {
	b, ok := f[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

// Map returns the nested object at key.
func (f Fields) Map(key string) map[string]any {
	m, _ := f[key].(map[string]any)
	return m
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Fields(t).Clone())
	case Fields:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		if !valuesEqual(fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
