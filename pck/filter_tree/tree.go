package filter_tree

// Op is the combinator on a tree edge. It decides under which parent outcome
// the child is reached: AND after a match, OR after a no-match, CATCH after a
// failure.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpCatch
)

func (op Op) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpCatch:
		return "CATCH"
	default:
		return "UNKNOWN"
	}
}

/*
========================
Tree
========================
*/

// Tree is a node of the dispatch tree: three edge maps, one per combinator,
// each from Filter to a child cell. Logically a tree, but descendants may be
// shared between paths; the CowCell ownership flag keeps that sharing safe
// under further registration.
//
// Registration and dispatch must not interleave on the same tree: build
// first, dispatch after (or synchronize externally). Dispatch itself only
// reads.
type Tree struct {
	ands    map[Filter]CowCell[*Tree]
	ors     map[Filter]CowCell[*Tree]
	catches map[Filter]CowCell[*Tree]
}

// NewTree returns an empty node, the root of a fresh dispatch tree.
func NewTree() *Tree {
	return &Tree{
		ands:    make(map[Filter]CowCell[*Tree]),
		ors:     make(map[Filter]CowCell[*Tree]),
		catches: make(map[Filter]CowCell[*Tree]),
	}
}

// Clone produces a fresh node whose edge maps are copied, with every child
// cell downgraded to a shared reference. Only the top node is new; the
// descendants stay shared until someone mutates into them.
func (t *Tree) Clone() *Tree {
	out := NewTree()
	for f, child := range t.ands {
		out.ands[f] = child.Share()
	}
	for f, child := range t.ors {
		out.ors[f] = child.Share()
	}
	for f, child := range t.catches {
		out.catches[f] = child.Share()
	}
	return out
}

func (t *Tree) edges(op Op) map[Filter]CowCell[*Tree] {
	switch op {
	case OpAnd:
		return t.ands
	case OpOr:
		return t.ors
	default:
		return t.catches
	}
}

// PathStep is one edge of a dispatch path: the combinator, the filter keyed
// on the edge, and optionally a pre-built subtree to attach as the child.
type PathStep struct {
	Op     Op
	Filter Filter
	// Branch, when set on a step that creates a new edge, is attached as a
	// shared reference; the external holder keeps its own view. Ignored when
	// the edge already exists: the first-registered child wins.
	Branch *Tree
}

// AddPath extends the tree with an ordered dispatch path, descending edge by
// edge and creating or reusing children as it goes. Re-adding an identical
// path lands on the same nodes without duplicating anything. The caller must
// hold t exclusively; concurrent AddPath calls are not supported.
func (t *Tree) AddPath(path []PathStep) *Tree {
	curr := Owned(t)
	for _, step := range path {
		children := curr.View().edges(step.Op)
		if child, exists := children[step.Filter]; exists {
			next := child.Mut()
			if next != child {
				children[step.Filter] = next
			}
			curr = next
		} else {
			var next CowCell[*Tree]
			if step.Branch != nil {
				next = Shared(step.Branch)
			} else {
				next = Owned(NewTree())
			}
			children[step.Filter] = next
			curr = next
		}
	}
	return t
}

/*
========================
Fluent path builder
========================
*/

// PathBuilder accumulates a dispatch path step by step before attaching it to
// a tree.
type PathBuilder struct {
	steps []PathStep
}

// NewPath starts an empty path.
func NewPath() *PathBuilder {
	return &PathBuilder{}
}

// Op appends an edge with an explicit combinator.
func (b *PathBuilder) Op(op Op, f Filter) *PathBuilder {
	b.steps = append(b.steps, PathStep{Op: op, Filter: f})
	return b
}

func (b *PathBuilder) And(f Filter) *PathBuilder {
	return b.Op(OpAnd, f)
}

func (b *PathBuilder) Or(f Filter) *PathBuilder {
	return b.Op(OpOr, f)
}

func (b *PathBuilder) Catch(f Filter) *PathBuilder {
	return b.Op(OpCatch, f)
}

// Branch attaches a pre-built subtree under the most recently appended step.
func (b *PathBuilder) Branch(sub *Tree) *PathBuilder {
	if n := len(b.steps); n > 0 {
		b.steps[n-1].Branch = sub
	}
	return b
}

// Steps returns the accumulated path.
func (b *PathBuilder) Steps() []PathStep {
	return b.steps
}

// End attaches the accumulated path to tree and returns the tree, so
// registrations chain naturally across builders.
func (b *PathBuilder) End(tree *Tree) *Tree {
	return tree.AddPath(b.steps)
}
