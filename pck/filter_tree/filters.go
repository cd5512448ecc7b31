package filter_tree

import (
	"context"
	"fmt"
	"reflect"
)

/*
========================
Builtin filters
========================

Value-type filters (UnitFilter, TypeFilter, ReraiseFilter) compare
structurally, so independently constructed instances land on the same tree
edge. Filters carrying a func (FuncFilter, PredicateFilter) are pointer
types: func values are not comparable in Go, so two of them are the same
edge only when they are the same instance.
*/

// UnitFilter always continues with an empty delta. The engine uses it as the
// synthetic root edge of every dispatch.
type UnitFilter struct{}

func (UnitFilter) Evaluate(context.Context, Context) (Context, bool, error) {
	return Context{}, true, nil
}

func (UnitFilter) String() string {
	return "unit"
}

// TypeFilter continues when the event is assignable to the target type, and
// does not match otherwise. An interface target matches any event
// implementing it.
type TypeFilter struct {
	Target reflect.Type
}

// TypeOf builds the filter for a type known at compile time:
// TypeOf[string](), TypeOf[error]().
func TypeOf[T any]() TypeFilter {
	return TypeFilter{Target: reflect.TypeOf((*T)(nil)).Elem()}
}

func (f TypeFilter) Evaluate(_ context.Context, ec Context) (Context, bool, error) {
	ev := ec.Event()
	if ev == nil {
		return nil, false, nil
	}
	if reflect.TypeOf(ev).AssignableTo(f.Target) {
		return Context{}, true, nil
	}
	return nil, false, nil
}

func (f TypeFilter) String() string {
	return fmt.Sprintf("type(%s)", f.Target)
}

// FilterFunc is the contract a FuncFilter delegates to; it is the full
// Evaluate signature, so user functions can suspend, produce deltas, and
// fail.
type FilterFunc func(ctx context.Context, ec Context) (Context, bool, error)

// FuncFilter wraps a user function as a tree edge, typically the handler at
// the end of a path. Named for rendering and for lookups in route documents.
type FuncFilter struct {
	Name string
	fn   FilterFunc
}

func NewFuncFilter(name string, fn FilterFunc) *FuncFilter {
	return &FuncFilter{Name: name, fn: fn}
}

func (f *FuncFilter) Evaluate(ctx context.Context, ec Context) (Context, bool, error) {
	return f.fn(ctx, ec)
}

func (f *FuncFilter) String() string {
	return fmt.Sprintf("func(%s)", f.Name)
}

// PredicateFilter continues with an empty delta when a synchronous predicate
// over the context holds.
type PredicateFilter struct {
	Name string
	pred func(Context) bool
}

func NewPredicateFilter(name string, pred func(Context) bool) *PredicateFilter {
	return &PredicateFilter{Name: name, pred: pred}
}

func (f *PredicateFilter) Evaluate(_ context.Context, ec Context) (Context, bool, error) {
	if f.pred(ec) {
		return Context{}, true, nil
	}
	return nil, false, nil
}

func (f *PredicateFilter) String() string {
	return fmt.Sprintf("predicate(%s)", f.Name)
}

// ReraiseFilter fails with the propagating error when one is present, and
// does not match otherwise. Attached under an OR edge after a CATCH filter,
// it forwards errors the catch filter rejected back onto the stack.
type ReraiseFilter struct{}

func (ReraiseFilter) Evaluate(_ context.Context, ec Context) (Context, bool, error) {
	if err := ec.Err(); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func (ReraiseFilter) String() string {
	return "reraise"
}
