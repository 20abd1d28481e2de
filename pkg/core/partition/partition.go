// Package partition flattens an annotated slice tree into the ordered node
// list consumed by one render pass.
//
// [Layout] walks the tree depth-first and emits a parent before its
// children. Sibling order is taken from the tree as is; nothing is sorted.
// Every [Node] keeps the normalized radii computed by package percent and
// adds a depth, an explicit Root tag and a [Span]:
//
//	X0, X1  fraction of the full turn, nested inside the parent's X range
//	Y0, Y1  ring band, depth/levels to (depth+1)/levels
//
// The span is what a sunburst-style renderer draws; the disk renderer only
// needs the radii and the depth.
package partition

import "github.com/matzehuels/crosssection/pkg/core/percent"

// Span is the angular and ring extent of a node, both in [0, 1].
type Span struct {
	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`
}

// Width returns the angular fraction covered by the span.
func (s Span) Width() float64 { return s.X1 - s.X0 }

// Node is one entry of the flattened layout.
type Node struct {
	Level *percent.LevelNode
	Depth int
	// Root is set on the tree root only. The root has no ring of its own.
	Root bool
	// Parent is the index of the parent node in the layout, -1 for the root.
	Parent      int
	InnerRadius float64
	OuterRadius float64
	Span        Span
}

// Name returns the name of the underlying slice.
func (n Node) Name() string { return n.Level.Name }

// Layout flattens root in pre-order. A nil root yields nil.
func Layout(root *percent.LevelNode) []Node {
	if root == nil {
		return nil
	}

	levels := 0
	root.Walk(func(_ *percent.LevelNode, d int) {
		levels = max(levels, d+1)
	})

	nodes := make([]Node, 0, 16)
	var visit func(ln *percent.LevelNode, depth, parent int, px0, pw float64)
	visit = func(ln *percent.LevelNode, depth, parent int, px0, pw float64) {
		n := Node{
			Level:       ln,
			Depth:       depth,
			Root:        parent < 0,
			Parent:      parent,
			InnerRadius: ln.InnerRadius,
			OuterRadius: ln.OuterRadius,
			Span: Span{
				X0: px0 + pw*ln.InnerRadius,
				X1: px0 + pw*ln.OuterRadius,
				Y0: float64(depth) / float64(levels),
				Y1: float64(depth+1) / float64(levels),
			},
		}
		idx := len(nodes)
		nodes = append(nodes, n)
		for _, c := range ln.Children {
			visit(c, depth+1, idx, n.Span.X0, n.Span.Width())
		}
	}
	visit(root, 0, -1, 0, 1)
	return nodes
}

// Levels returns the number of distinct depths in nodes.
func Levels(nodes []Node) int {
	levels := 0
	for _, n := range nodes {
		levels = max(levels, n.Depth+1)
	}
	return levels
}

// Children returns the indices of the direct children of nodes[i], in order.
func Children(nodes []Node, i int) []int {
	var out []int
	for j := i + 1; j < len(nodes); j++ {
		if nodes[j].Parent == i {
			out = append(out, j)
		}
	}
	return out
}
