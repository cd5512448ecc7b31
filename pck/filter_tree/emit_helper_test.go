package filter_tree

import (
	"context"
	"sync"
)

// eventRecorder is a terminal handler fixture: records the event it saw and
// stops the path.
type eventRecorder struct {
	mu   sync.Mutex
	seen []any
}

func (r *eventRecorder) handler() FilterFunc {
	return func(_ context.Context, ec Context) (Context, bool, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, ec.Event())
		return nil, false, nil
	}
}

func (r *eventRecorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.seen))
	copy(out, r.seen)
	return out
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// ctxRecorder captures the full context a handler was invoked with.
type ctxRecorder struct {
	mu   sync.Mutex
	ctxs []Context
}

func (r *ctxRecorder) handler() FilterFunc {
	return func(_ context.Context, ec Context) (Context, bool, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ctxs = append(r.ctxs, ec.Clone())
		return nil, false, nil
	}
}

func (r *ctxRecorder) all() []Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Context, len(r.ctxs))
	copy(out, r.ctxs)
	return out
}

// failingFilter builds a handler that fails with err for every event.
func failingFilter(name string, err error) *FuncFilter {
	return NewFuncFilter(name, func(context.Context, Context) (Context, bool, error) {
		return nil, false, err
	})
}

// errorKindPredicate matches when the propagating error is target, per
// errors.Is semantics via a plain comparison on the sentinel.
func errorKindPredicate(name string, target error) *PredicateFilter {
	return NewPredicateFilter(name, func(ec Context) bool {
		return ec.Err() == target
	})
}
