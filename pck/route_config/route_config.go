package route_config

import (
	"errors"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/mzoric/sift/pck/filter_tree"
)

var (
	ErrUnknownOp     = errors.New("unknown combinator")
	ErrUnknownFilter = errors.New("filter not registered")
	ErrUnknownType   = errors.New("type not registered")
	ErrEmptyStep     = errors.New("step declares no filter")
)

/*
========================
Document model
========================
*/

// Step is one edge declaration in a route. Exactly one of the filter fields
// must be set: a registered type name, a registered filter name, or one of
// the unit/raise builtins.
type Step struct {
	Op     string `yaml:"op"`
	Type   string `yaml:"type,omitempty"`
	Filter string `yaml:"filter,omitempty"`
	Unit   bool   `yaml:"unit,omitempty"`
	Raise  bool   `yaml:"raise,omitempty"`
}

// Route is a named dispatch path.
type Route struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// RouteSet is the top-level route document.
type RouteSet struct {
	Routes []Route `yaml:"routes"`
}

// Load parses a YAML route document. Name resolution happens later, in
// Apply, so a set can be loaded before the application registers handlers.
func Load(data []byte) (*RouteSet, error) {
	var rs RouteSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse route document: %w", err)
	}
	return &rs, nil
}

/*
========================
Registry
========================
*/

// Registry resolves the names a route document refers to: filters registered
// by the application, and event types for type steps. Scalar Go types are
// pre-registered under their literal names.
type Registry struct {
	filters map[string]filter_tree.Filter
	types   map[string]reflect.Type
}

func NewRegistry() *Registry {
	r := &Registry{
		filters: make(map[string]filter_tree.Filter),
		types:   make(map[string]reflect.Type),
	}
	RegisterTypeFor[string](r, "string")
	RegisterTypeFor[int](r, "int")
	RegisterTypeFor[bool](r, "bool")
	RegisterTypeFor[float64](r, "float64")
	return r
}

func (r *Registry) RegisterFilter(name string, f filter_tree.Filter) *Registry {
	r.filters[name] = f
	return r
}

func (r *Registry) RegisterType(name string, t reflect.Type) *Registry {
	r.types[name] = t
	return r
}

// RegisterTypeFor registers a compile-time type under a document name.
func RegisterTypeFor[T any](r *Registry, name string) *Registry {
	return r.RegisterType(name, reflect.TypeOf((*T)(nil)).Elem())
}

func (r *Registry) resolve(step Step) (filter_tree.Filter, error) {
	switch {
	case step.Unit:
		return filter_tree.UnitFilter{}, nil
	case step.Raise:
		return filter_tree.ReraiseFilter{}, nil
	case step.Type != "":
		t, ok := r.types[step.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, step.Type)
		}
		return filter_tree.TypeFilter{Target: t}, nil
	case step.Filter != "":
		f, ok := r.filters[step.Filter]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, step.Filter)
		}
		return f, nil
	default:
		return nil, ErrEmptyStep
	}
}

func resolveOp(name string) (filter_tree.Op, error) {
	switch name {
	case "and":
		return filter_tree.OpAnd, nil
	case "or":
		return filter_tree.OpOr, nil
	case "catch":
		return filter_tree.OpCatch, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}
}

/*
========================
Application
========================
*/

// Apply resolves every route against the registry and extends the tree with
// it, in document order. A resolution error aborts before the failing route
// is attached; routes already applied stay.
func (rs *RouteSet) Apply(tree *filter_tree.Tree, reg *Registry) error {
	for _, route := range rs.Routes {
		steps := make([]filter_tree.PathStep, 0, len(route.Steps))
		for i, step := range route.Steps {
			op, err := resolveOp(step.Op)
			if err != nil {
				return fmt.Errorf("route %q step %d: %w", route.Name, i, err)
			}
			f, err := reg.resolve(step)
			if err != nil {
				return fmt.Errorf("route %q step %d: %w", route.Name, i, err)
			}
			steps = append(steps, filter_tree.PathStep{Op: op, Filter: f})
		}
		tree.AddPath(steps)
	}
	return nil
}
