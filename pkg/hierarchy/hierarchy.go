// Package hierarchy defines the input model of a cross-section chart: a
// tree of weighted nodes produced by a hierarchical aggregation.
//
// A [Node] is one bucket of the aggregation result. Its Size is read as
// given; the chart never recomputes an internal node's size from its
// children, so callers must supply pre-aggregated values consistently.
// Sibling order is significant: the first child starts at radius 0.
//
// A [Chart] wraps the root of one tree. Several charts appear when the data
// is split by an outer grouping dimension; a [Document] carries them all.
package hierarchy

import (
	"math"

	"github.com/matzehuels/crosssection/pkg/errors"
)

// Node is one bucket of a hierarchical aggregation result.
type Node struct {
	Name     string  `json:"name" yaml:"name" toml:"name"`
	Size     float64 `json:"size" yaml:"size" toml:"size"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// Leaf creates a node without children.
func Leaf(name string, size float64) *Node {
	return &Node{Name: name, Size: size}
}

// Group creates an internal node with the given children in order.
func Group(name string, size float64, children ...*Node) *Node {
	return &Node{Name: name, Size: size, Children: children}
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Magnitude returns |Size|, the weight used by the percentage math.
func (n *Node) Magnitude() float64 { return math.Abs(n.Size) }

// Walk visits n and its descendants in pre-order. Returning false from fn
// prunes the subtree below the visited node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		if c != nil {
			c.walk(fn, depth+1)
		}
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels below n (0 for a leaf).
func (n *Node) Depth() int {
	deepest := 0
	n.Walk(func(_ *Node, d int) bool {
		deepest = max(deepest, d)
		return true
	})
	return deepest
}

// Validate checks names and sizes across the tree.
// Nil children are rejected because sibling order would become ambiguous.
func (n *Node) Validate() error {
	var err error
	n.Walk(func(node *Node, _ int) bool {
		if err != nil {
			return false
		}
		if err = errors.ValidateName(node.Name); err != nil {
			return false
		}
		if err = errors.ValidateSize(node.Name, node.Size); err != nil {
			return false
		}
		for i, c := range node.Children {
			if c == nil {
				err = errors.New(errors.ErrCodeInvalidDocument, "slice %q has nil child at index %d", node.Name, i)
				return false
			}
		}
		return true
	})
	return err
}

// Chart is one cross-section chart: the root of a slice tree plus an
// optional label from the outer split bucket.
type Chart struct {
	Label  string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Slices *Node  `json:"slices" yaml:"slices" toml:"slices"`
}

// HasSlices reports whether the chart has at least one slice to draw.
func (c Chart) HasSlices() bool {
	return c.Slices != nil && len(c.Slices.Children) > 0
}

// Document is the full input of one render: every chart produced by the
// aggregation.
type Document struct {
	Charts []Chart `json:"charts" yaml:"charts" toml:"charts"`
}

// Single wraps one slice tree as a document with one unlabeled chart.
func Single(slices *Node) Document {
	return Document{Charts: []Chart{{Slices: slices}}}
}

// Validate checks every chart tree in the document.
func (d Document) Validate() error {
	for i, c := range d.Charts {
		if err := errors.ValidateName(c.Label); err != nil {
			return err
		}
		if c.Slices == nil {
			continue
		}
		if err := c.Slices.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "chart %d", i)
		}
	}
	return nil
}

// NodeCount returns the total number of nodes across all charts.
func (d Document) NodeCount() int {
	total := 0
	for _, c := range d.Charts {
		if c.Slices != nil {
			total += c.Slices.Count()
		}
	}
	return total
}
