package route_config

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mzoric/sift/pck/filter_tree"
)

const routesDoc = `
routes:
  - name: text
    steps:
      - op: and
        type: string
      - op: or
        type: int
      - op: and
        filter: record
  - name: payments
    steps:
      - op: and
        type: payment
      - op: and
        filter: settle
      - op: catch
        filter: is_declined
      - op: and
        filter: record_decline
`

type payment struct {
	Amount int
}

type recorder struct {
	mu   sync.Mutex
	seen []any
}

func (r *recorder) filter(name string) *filter_tree.FuncFilter {
	return filter_tree.NewFuncFilter(name, func(_ context.Context, ec filter_tree.Context) (filter_tree.Context, bool, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, ec.Event())
		return nil, false, nil
	})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func testRegistry(rec *recorder) *Registry {
	reg := NewRegistry().
		RegisterFilter("record", rec.filter("record")).
		RegisterFilter("settle", filter_tree.UnitFilter{}).
		RegisterFilter("is_declined", filter_tree.NewPredicateFilter("is_declined", func(filter_tree.Context) bool {
			return false
		})).
		RegisterFilter("record_decline", rec.filter("record_decline"))
	RegisterTypeFor[payment](reg, "payment")
	return reg
}

func Test_Apply_BuildsDispatchablePaths(t *testing.T) {
	rec := &recorder{}
	rs, err := Load([]byte(routesDoc))
	require.NoError(t, err)
	require.Len(t, rs.Routes, 2)

	tree := filter_tree.NewTree()
	require.NoError(t, rs.Apply(tree, testRegistry(rec)))

	tree.Emit(context.Background(), "hello")
	require.Equal(t, 1, rec.count())

	tree.Emit(context.Background(), 42)
	require.Equal(t, 2, rec.count())

	tree.Emit(context.Background(), payment{Amount: 10})
	require.Equal(t, 2, rec.count()) // settle matched, nothing recorded
}

func Test_Apply_TwiceIsIdempotent(t *testing.T) {
	rec := &recorder{}
	rs, err := Load([]byte(routesDoc))
	require.NoError(t, err)

	// Resolution is stable (same registry instances, structural type
	// filters), so re-applying lands on the existing edges.
	reg := testRegistry(rec)
	tree := filter_tree.NewTree()
	require.NoError(t, rs.Apply(tree, reg))
	require.NoError(t, rs.Apply(tree, reg))

	tree.Emit(context.Background(), "hello")
	require.Equal(t, 1, rec.count())
}

func Test_Apply_UnknownOp(t *testing.T) {
	rs, err := Load([]byte("routes:\n  - name: bad\n    steps:\n      - op: xor\n        type: string\n"))
	require.NoError(t, err)

	err = rs.Apply(filter_tree.NewTree(), NewRegistry())
	require.ErrorIs(t, err, ErrUnknownOp)
	require.ErrorContains(t, err, `route "bad" step 0`)
}

func Test_Apply_UnknownFilterName(t *testing.T) {
	rs, err := Load([]byte("routes:\n  - name: bad\n    steps:\n      - op: and\n        filter: missing\n"))
	require.NoError(t, err)

	err = rs.Apply(filter_tree.NewTree(), NewRegistry())
	require.ErrorIs(t, err, ErrUnknownFilter)
}

func Test_Apply_UnknownTypeName(t *testing.T) {
	rs, err := Load([]byte("routes:\n  - name: bad\n    steps:\n      - op: and\n        type: order\n"))
	require.NoError(t, err)

	err = rs.Apply(filter_tree.NewTree(), NewRegistry())
	require.ErrorIs(t, err, ErrUnknownType)
}

func Test_Apply_EmptyStep(t *testing.T) {
	rs, err := Load([]byte("routes:\n  - name: bad\n    steps:\n      - op: and\n"))
	require.NoError(t, err)

	err = rs.Apply(filter_tree.NewTree(), NewRegistry())
	require.ErrorIs(t, err, ErrEmptyStep)
}

func Test_Load_BuiltinSteps(t *testing.T) {
	rs, err := Load([]byte("routes:\n  - name: forward\n    steps:\n      - op: and\n        unit: true\n      - op: or\n        raise: true\n"))
	require.NoError(t, err)
	require.NoError(t, rs.Apply(filter_tree.NewTree(), NewRegistry()))
}

func Test_Load_RejectsMalformedYAML(t *testing.T) {
	_, err := Load([]byte("routes: [unclosed"))
	require.Error(t, err)
}
