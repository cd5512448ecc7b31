package filter_tree

import (
	"context"
	"fmt"
	"sync"
)

/*
========================
Error stack
========================
*/

// errStack is the per-dispatch stack of not-yet-suppressed failures. One
// instance is shared by reference across every concurrent branch of a single
// Emit call, so pushes and the CATCH pop are guarded.
type errStack struct {
	mu   sync.Mutex
	errs []error
}

func (s *errStack) push(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

// pop retracts the most recently pushed entry.
func (s *errStack) pop() {
	s.mu.Lock()
	if n := len(s.errs); n > 0 {
		s.errs = s.errs[:n-1]
	}
	s.mu.Unlock()
}

// drain empties the stack and returns the entries most-recent-first.
func (s *errStack) drain() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, 0, len(s.errs))
	for i := len(s.errs) - 1; i >= 0; i-- {
		out = append(out, s.errs[i])
	}
	s.errs = nil
	return out
}

/*
========================
Dispatch
========================
*/

// Emit dispatches an event through the tree and returns the failures no
// CATCH edge claimed, most recent first. It returns only after every branch
// has completed, and it always returns normally: filter failures are data,
// never panics.
func (t *Tree) Emit(ctx context.Context, event any) []error {
	caught := &errStack{}
	t.emitAnd(ctx, Context{KeyEvent: event}, UnitFilter{}, caught)
	return caught.drain()
}

// safeEvaluate runs a filter against its own copy of the context, converting
// a panic into a failure so one misbehaving filter cannot take down the
// dispatch.
func safeEvaluate(ctx context.Context, f Filter, ec Context) (delta Context, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			delta, ok = nil, false
			err = fmt.Errorf("filter panic: %v", r)
		}
	}()
	return f.Evaluate(ctx, ec.Clone())
}

// emitAnd evaluates the edge filter that led into this node, then fans out:
//   - match: merged context goes AND to and-children, OR to or-children.
//   - no match: or-children are retried as AND edges on a fresh copy.
//   - failure: the error is pushed, the error context goes to and/or/catch
//     children, and once the CATCH branches alone have joined, the presence
//     of at least one CATCH edge retracts the most recent stack entry —
//     whether or not any catch filter matched. A catch branch that re-raises
//     pushes a new entry that the pop removes instead, leaving the original.
//
// All sibling branches run concurrently; nothing cancels a peer.
func (t *Tree) emitAnd(ctx context.Context, ec Context, f Filter, caught *errStack) {
	delta, ok, err := safeEvaluate(ctx, f, ec)
	switch {
	case err != nil:
		caught.push(err)
		errCtx := ec.merged(Context{KeyError: err})

		var wg sync.WaitGroup
		for cf, child := range t.ands {
			cf, child := cf, child
			wg.Add(1)
			go func() {
				defer wg.Done()
				child.View().emitAnd(ctx, errCtx, cf, caught)
			}()
		}
		for _, child := range t.ors {
			child := child
			wg.Add(1)
			go func() {
				defer wg.Done()
				child.View().emitOr(ctx, errCtx, caught)
			}()
		}

		// CATCH branches join separately: only their completion gates the pop.
		var catchWG sync.WaitGroup
		for cf, child := range t.catches {
			cf, child := cf, child
			catchWG.Add(1)
			go func() {
				defer catchWG.Done()
				child.View().emitAnd(ctx, errCtx, cf, caught)
			}()
		}
		catchWG.Wait()
		if len(t.catches) > 0 {
			caught.pop()
		}
		wg.Wait()

	case ok:
		merged := ec.merged(delta)

		var wg sync.WaitGroup
		for cf, child := range t.ands {
			cf, child := cf, child
			wg.Add(1)
			go func() {
				defer wg.Done()
				child.View().emitAnd(ctx, merged, cf, caught)
			}()
		}
		for _, child := range t.ors {
			child := child
			wg.Add(1)
			go func() {
				defer wg.Done()
				child.View().emitOr(ctx, merged, caught)
			}()
		}
		wg.Wait()

	default:
		// No match: only the OR alternatives run, each evaluated as an AND
		// edge against an isolated copy (nothing was produced to merge).
		var wg sync.WaitGroup
		for cf, child := range t.ors {
			cf, child := cf, child
			wg.Add(1)
			go func() {
				defer wg.Done()
				child.View().emitAnd(ctx, ec.Clone(), cf, caught)
			}()
		}
		wg.Wait()
	}
}

// emitOr skips this node's own edge filter (the hop that led here was an OR
// fallback) and evaluates the and-children as AND edges on a fresh copy.
// Or- and catch-children are not reachable from an OR hop.
func (t *Tree) emitOr(ctx context.Context, ec Context, caught *errStack) {
	var wg sync.WaitGroup
	for cf, child := range t.ands {
		cf, child := cf, child
		wg.Add(1)
		go func() {
			defer wg.Done()
			child.View().emitAnd(ctx, ec.Clone(), cf, caught)
		}()
	}
	wg.Wait()
}

// emitCatch unwinds past siblings without re-evaluating their filters while
// keeping deeper CATCH edges reachable: and/or-children are unwound the same
// way, catch-children are evaluated as AND edges. Only exercised by paths
// that nest CATCH edges below another CATCH edge.
func (t *Tree) emitCatch(ctx context.Context, ec Context, caught *errStack) {
	var wg sync.WaitGroup
	for _, child := range t.ands {
		child := child
		wg.Add(1)
		go func() {
			defer wg.Done()
			child.View().emitCatch(ctx, ec.Clone(), caught)
		}()
	}
	for _, child := range t.ors {
		child := child
		wg.Add(1)
		go func() {
			defer wg.Done()
			child.View().emitCatch(ctx, ec.Clone(), caught)
		}()
	}
	for cf, child := range t.catches {
		cf, child := cf, child
		wg.Add(1)
		go func() {
			defer wg.Done()
			child.View().emitAnd(ctx, ec.Clone(), cf, caught)
		}()
	}
	wg.Wait()
}
