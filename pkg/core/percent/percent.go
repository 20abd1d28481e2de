// Package percent converts a slice tree into a tree of relative extents.
//
// Every child of a node receives:
//
//   - PercentOfGroup: |size| / Σ|sibling sizes|
//   - PercentOfParent: PercentOfGroup × parent.PercentOfParent (root = 1)
//   - InnerRadius, OuterRadius: the cumulative [0,1] band it occupies among
//     its siblings, in sibling order, the first sibling starting at 0
//
// The transform is pure: [Assigner.Assign] never mutates the input
// [hierarchy.Node] tree and returns a fresh [LevelNode] tree. Re-entry is
// handled by a result cache keyed by node identity, so assigning a tree (or
// a subtree shared between charts) a second time is a lookup, not a
// recomputation.
//
// # Zero-sum subtrees
//
// A node whose children all have size zero has nothing to divide. The
// [Policy] decides what happens: [PolicyZeroWidth] keeps the children as
// zero-width bands, [PolicySkip] drops them, [PolicyError] fails with
// *errors.DegenerateSubtreeError. NaN and infinities are never produced.
package percent

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

// Policy selects the treatment of zero-sum subtrees.
type Policy int

const (
	// PolicyZeroWidth keeps children of a zero-sum parent as invisible bands
	// with all extents set to zero.
	PolicyZeroWidth Policy = iota
	// PolicySkip drops the children of a zero-sum parent.
	PolicySkip
	// PolicyError fails the assignment.
	PolicyError
)

var policyNames = map[Policy]string{
	PolicyZeroWidth: "zero-width",
	PolicySkip:      "skip",
	PolicyError:     "error",
}

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses "zero-width", "skip" or "error" (case-insensitive).
// The empty string selects PolicyZeroWidth.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return PolicyZeroWidth, nil
	}
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidPolicy, "invalid zero policy: %q (must be one of: zero-width, skip, error)", s)
}

// LevelNode is a slice annotated with its relative extents.
// LevelNodes are immutable once returned; subtrees may be shared between
// results of the same Assigner.
type LevelNode struct {
	Name   string
	Size   float64
	Source *hierarchy.Node

	// Root marks the tree root, which has no band of its own.
	Root bool

	// SumOfChildren is Σ|child.Size|, saturated at math.MaxFloat64.
	SumOfChildren   float64
	PercentOfGroup  float64
	PercentOfParent float64
	InnerRadius     float64
	OuterRadius     float64

	Children []*LevelNode
}

// Walk visits n and its descendants in pre-order with their depth.
func (n *LevelNode) Walk(fn func(node *LevelNode, depth int)) {
	n.walk(fn, 0)
}

func (n *LevelNode) walk(fn func(*LevelNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Assigner computes LevelNode trees and remembers what it computed.
// An Assigner is meant to live for one render pass; it is not safe for
// concurrent use.
type Assigner struct {
	policy Policy
	roots  map[*hierarchy.Node]*LevelNode
	memo   map[memoKey]memoEntry
	hits   int
}

// memoKey identifies a subtree computation: the same node below a parent
// with a different share produces different PercentOfParent values.
type memoKey struct {
	node          *hierarchy.Node
	parentPercent float64
}

type memoEntry struct {
	children []*LevelNode
	sum      float64
}

// New creates an Assigner with the given zero-sum policy.
func New(policy Policy) *Assigner {
	return &Assigner{
		policy: policy,
		roots:  make(map[*hierarchy.Node]*LevelNode),
		memo:   make(map[memoKey]memoEntry),
	}
}

// Assign is a convenience wrapper that annotates root with a fresh Assigner.
func Assign(root *hierarchy.Node, policy Policy) (*LevelNode, error) {
	return New(policy).Assign(root)
}

// Policy returns the zero-sum policy of the assigner.
func (a *Assigner) Policy() Policy { return a.policy }

// Hits returns how many root or subtree computations were served from the
// cache.
func (a *Assigner) Hits() int { return a.hits }

// Assign annotates the tree rooted at root. Assigning the same root twice
// returns the identical *LevelNode.
func (a *Assigner) Assign(root *hierarchy.Node) (*LevelNode, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "nil slice tree")
	}
	if cached, ok := a.roots[root]; ok {
		a.hits++
		return cached, nil
	}

	ln := &LevelNode{
		Name:            root.Name,
		Size:            root.Size,
		Source:          root,
		Root:            true,
		PercentOfGroup:  1,
		PercentOfParent: 1,
		InnerRadius:     0,
		OuterRadius:     1,
	}
	visiting := make(map[*hierarchy.Node]bool)
	if err := a.fill(ln, visiting); err != nil {
		return nil, err
	}
	a.roots[root] = ln
	return ln, nil
}

// fill computes the children of ln from ln.Source.
func (a *Assigner) fill(ln *LevelNode, visiting map[*hierarchy.Node]bool) error {
	src := ln.Source
	if visiting[src] {
		return errors.New(errors.ErrCodeInvalidDocument, "slice %q appears inside its own subtree", src.Name)
	}

	key := memoKey{node: src, parentPercent: ln.PercentOfParent}
	if e, ok := a.memo[key]; ok {
		a.hits++
		ln.Children, ln.SumOfChildren = e.children, e.sum
		return nil
	}

	visiting[src] = true
	defer delete(visiting, src)

	var sum, largest float64
	for i, c := range src.Children {
		if c == nil {
			return errors.New(errors.ErrCodeInvalidDocument, "slice %q has nil child at index %d", src.Name, i)
		}
		if err := errors.ValidateSize(c.Name, c.Size); err != nil {
			return err
		}
		sum += c.Magnitude()
		largest = math.Max(largest, c.Magnitude())
	}
	ln.SumOfChildren = sum

	// Magnitudes near MaxFloat64 overflow the sum. Measure them in units
	// of the largest sibling instead, which keeps the sum below the
	// sibling count.
	unit := 1.0
	if math.IsInf(sum, 1) {
		unit = largest
		sum = 0
		for _, c := range src.Children {
			sum += c.Magnitude() / unit
		}
		ln.SumOfChildren = math.MaxFloat64
	}

	if len(src.Children) > 0 && sum == 0 {
		switch a.policy {
		case PolicyError:
			return &errors.DegenerateSubtreeError{Name: src.Name, Children: len(src.Children)}
		case PolicySkip:
			a.memo[key] = memoEntry{sum: sum}
			return nil
		}
	}

	children := make([]*LevelNode, 0, len(src.Children))
	var innerSum float64
	for _, c := range src.Children {
		child := &LevelNode{Name: c.Name, Size: c.Size, Source: c}
		m := c.Magnitude() / unit
		if sum > 0 {
			child.InnerRadius = innerSum / sum
			child.OuterRadius = child.InnerRadius + m/sum
			child.PercentOfGroup = m / sum
			child.PercentOfParent = child.PercentOfGroup * ln.PercentOfParent
		}
		innerSum += m

		if err := a.fill(child, visiting); err != nil {
			return err
		}
		children = append(children, child)
	}

	ln.Children = children
	a.memo[key] = memoEntry{children: children, sum: sum}
	return nil
}
