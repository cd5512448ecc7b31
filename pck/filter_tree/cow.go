package filter_tree

// Cloner is satisfied by values that can produce a fresh copy of themselves.
type Cloner[T any] interface {
	Clone() T
}

// CowCell wraps a reference together with an ownership flag. An owned cell is
// the only holder of its value and may mutate it in place; a shared cell must
// clone before mutating. Ownership is a bookkeeping invariant the tree
// builder maintains, not something enforced by a lock.
type CowCell[T Cloner[T]] struct {
	value T
	owned bool
}

// Owned wraps a value the caller holds exclusively.
func Owned[T Cloner[T]](v T) CowCell[T] {
	return CowCell[T]{value: v, owned: true}
}

// Shared wraps a value at least one other holder references.
func Shared[T Cloner[T]](v T) CowCell[T] {
	return CowCell[T]{value: v, owned: false}
}

// View gives read access regardless of ownership.
func (c CowCell[T]) View() T {
	return c.value
}

// Mut returns a cell whose value is safe to mutate in place: the cell itself
// when owned, otherwise a new owned cell holding a clone. Callers must use
// the returned cell from here on.
func (c CowCell[T]) Mut() CowCell[T] {
	if c.owned {
		return c
	}
	return CowCell[T]{value: c.value.Clone(), owned: true}
}

// Share returns a not-owned cell referencing the same value. Used whenever a
// value is handed to a second holder.
func (c CowCell[T]) Share() CowCell[T] {
	return CowCell[T]{value: c.value, owned: false}
}
