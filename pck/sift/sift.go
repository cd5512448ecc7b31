package sift

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mzoric/sift/pck/filter_tree"
)

// CatchFunc receives the failures no CATCH edge claimed, one call per error,
// most recent first. Retries are the embedder's business, not the engine's.
type CatchFunc func(ctx context.Context, err error)

// Sift owns one dispatch tree and an optional sink for uncaught errors. Build
// the tree fully before publishing through it; registration and dispatch must
// not interleave.
type Sift struct {
	tree   *filter_tree.Tree
	catch  CatchFunc
	logger *slog.Logger
}

type Option func(*Sift)

// WithCatch installs the uncaught-error sink. Without one, uncaught failures
// are discarded.
func WithCatch(fn CatchFunc) Option {
	return func(s *Sift) {
		s.catch = fn
	}
}

// WithLogger enables debug logging of dispatch lifecycle.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sift) {
		s.logger = l
	}
}

func New(tree *filter_tree.Tree, opts ...Option) *Sift {
	s := &Sift{tree: tree}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree exposes the owned tree, e.g. for inspection.
func (s *Sift) Tree() *filter_tree.Tree {
	return s.tree
}

// Publish dispatches one event through the tree and returns once every
// branch has completed. Failures never escape the dispatch; whatever no
// CATCH edge claimed goes to the sink, most recent first.
func (s *Sift) Publish(ctx context.Context, event any) {
	dispatchID := uuid.New()
	if s.logger != nil {
		s.logger.DebugContext(ctx, "dispatch start",
			"dispatch_id", dispatchID,
			"event_type", fmt.Sprintf("%T", event),
		)
	}

	uncaught := s.tree.Emit(ctx, event)

	if s.logger != nil {
		s.logger.DebugContext(ctx, "dispatch done",
			"dispatch_id", dispatchID,
			"uncaught", len(uncaught),
		)
	}
	if s.catch == nil {
		return
	}
	for _, err := range uncaught {
		s.catch(ctx, err)
	}
}
