package filter_tree

import (
	"context"
	"maps"
)

// Reserved context keys. The engine owns both: KeyEvent is set once when a
// dispatch starts, KeyError only while a failure is propagating. Filters must
// not write either key through their delta.
const (
	KeyEvent = "event"
	KeyError = "error"
)

// Context is the mapping threaded along a dispatch path. Each filter receives
// its own copy, so internal mutations never leak to siblings; only the
// returned delta propagates.
type Context map[string]any

// Event returns the payload the dispatch was started with.
func (c Context) Event() any {
	return c[KeyEvent]
}

// Err returns the propagating failure, or nil when none is set.
func (c Context) Err() error {
	if err, ok := c[KeyError].(error); ok {
		return err
	}
	return nil
}

// Clone returns a shallow copy. Values are shared, the map is not.
func (c Context) Clone() Context {
	return maps.Clone(c)
}

// merged returns a new context with delta applied on top; delta keys win.
func (c Context) merged(delta Context) Context {
	out := make(Context, len(c)+len(delta))
	maps.Copy(out, c)
	maps.Copy(out, delta)
	return out
}

// Filter is the unit of computation on a tree edge. Evaluate inspects the
// context and reports one of three outcomes:
//
//   - ok true: continue down this path, merging delta (possibly empty) into
//     the context handed to children.
//   - ok false, err nil: no match; this path stops, OR alternatives still run.
//   - err non-nil: failure; the error is recorded and propagates per the
//     CATCH rules.
//
// Filters are edge-map keys, so implementations must be comparable: value
// types compare structurally by their fields, pointer types by identity. Two
// equal filters must behave identically for the same inputs; the engine
// relies on this when it reuses an existing edge instead of adding a
// duplicate.
type Filter interface {
	Evaluate(ctx context.Context, ec Context) (delta Context, ok bool, err error)
}
