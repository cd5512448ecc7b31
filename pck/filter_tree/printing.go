package filter_tree

import (
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

/*
========================
Tree inspection
========================

Rendering walks the structure the same way dispatch does, so a subtree shared
between two parent paths shows up once per path. Edges are ordered AND, OR,
CATCH, and alphabetically by filter label within a group, which keeps the
output stable across runs.
*/

// NodeDescription is the serializable shape of one tree node.
type NodeDescription struct {
	And   []EdgeDescription `json:"and,omitempty"`
	Or    []EdgeDescription `json:"or,omitempty"`
	Catch []EdgeDescription `json:"catch,omitempty"`
}

// EdgeDescription is one edge: the filter's label and the child it leads to.
type EdgeDescription struct {
	Filter string           `json:"filter"`
	Child  *NodeDescription `json:"child,omitempty"`
}

func filterLabel(f Filter) string {
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f)
}

func describeEdges(edges map[Filter]CowCell[*Tree]) []EdgeDescription {
	if len(edges) == 0 {
		return nil
	}
	out := make([]EdgeDescription, 0, len(edges))
	for f, child := range edges {
		out = append(out, EdgeDescription{
			Filter: filterLabel(f),
			Child:  DescribeNode(child.View()),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Filter < out[j].Filter
	})
	return out
}

// DescribeNode builds the description of a node, or nil for an empty node.
func DescribeNode(t *Tree) *NodeDescription {
	desc := &NodeDescription{
		And:   describeEdges(t.ands),
		Or:    describeEdges(t.ors),
		Catch: describeEdges(t.catches),
	}
	if desc.And == nil && desc.Or == nil && desc.Catch == nil {
		return nil
	}
	return desc
}

// DescribeJSON renders the tree structure as indented JSON, for tooling and
// golden comparisons.
func DescribeJSON(t *Tree) ([]byte, error) {
	desc := DescribeNode(t)
	if desc == nil {
		desc = &NodeDescription{}
	}
	return json.MarshalIndent(desc, "", "  ")
}

// Describe renders the tree structure as an indented text tree.
func Describe(t *Tree) string {
	var b strings.Builder
	b.WriteString(".\n")
	writeNode(&b, DescribeNode(t), "")
	return b.String()
}

type describedEdge struct {
	op   string
	edge EdgeDescription
}

func writeNode(b *strings.Builder, desc *NodeDescription, indent string) {
	if desc == nil {
		return
	}
	var entries []describedEdge
	for _, e := range desc.And {
		entries = append(entries, describedEdge{op: OpAnd.String(), edge: e})
	}
	for _, e := range desc.Or {
		entries = append(entries, describedEdge{op: OpOr.String(), edge: e})
	}
	for _, e := range desc.Catch {
		entries = append(entries, describedEdge{op: OpCatch.String(), edge: e})
	}

	for i, entry := range entries {
		connector, childIndent := "├── ", "│   "
		if i == len(entries)-1 {
			connector, childIndent = "└── ", "    "
		}
		fmt.Fprintf(b, "%s%s%s %s\n", indent, connector, entry.op, entry.edge.Filter)
		writeNode(b, entry.edge.Child, indent+childIndent)
	}
}
