// Package geometry turns a flattened layout into disk segments with
// absolute radii.
//
// Normalized radii in [0, 1] are scaled against a single outer bound,
//
//	Bound = min(Width, Height) / 2 * MarginFactor
//
// so the outermost band of a 400x400 surface ends at 190. A pie maps
// [0, 1] onto [0, Bound]. A donut keeps a hole of DonutHole*Bound open in
// the middle and maps [0, 1] onto [hole, Bound].
//
// The root of the tree is a pivot, not a ring: its segment always has both
// radii at zero. The root is recognised by its Root tag, never by position.
package geometry

import (
	"github.com/matzehuels/crosssection/pkg/core/partition"
	"github.com/matzehuels/crosssection/pkg/core/percent"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

const (
	// DefaultMarginFactor leaves a 5% margin around the outermost ring.
	DefaultMarginFactor = 0.95
	// DefaultDonutHole is the hole radius of a donut as a fraction of Bound.
	DefaultDonutHole = 0.5
)

// Options controls the scaling of a layout into absolute units.
type Options struct {
	Width, Height float64
	// MarginFactor scales the half-size of the surface; 0 selects
	// DefaultMarginFactor.
	MarginFactor float64
	Donut        bool
	// DonutHole is only read when Donut is set; 0 selects DefaultDonutHole.
	DonutHole float64
	// Color resolves colour keys; nil selects the default palette.
	Color styles.ColorFunc
}

// Bound returns the absolute radius of normalized radius 1.
func (o Options) Bound() float64 {
	margin := o.MarginFactor
	if margin == 0 {
		margin = DefaultMarginFactor
	}
	return min(o.Width, o.Height) / 2 * margin
}

// Hole returns the absolute radius of normalized radius 0: zero for a pie.
func (o Options) Hole() float64 {
	if !o.Donut {
		return 0
	}
	hole := o.DonutHole
	if hole == 0 {
		hole = DefaultDonutHole
	}
	return hole * o.Bound()
}

// Scale maps a normalized radius onto the absolute range of o.
func (o Options) Scale(r float64) float64 {
	hole := o.Hole()
	return hole + r*(o.Bound()-hole)
}

// DiskSegment is one renderable annulus.
type DiskSegment struct {
	InnerRadius float64            `json:"inner_radius"`
	OuterRadius float64            `json:"outer_radius"`
	ColorKey    string             `json:"color"`
	Depth       int                `json:"depth"`
	Root        bool               `json:"root,omitempty"`
	Parent      int                `json:"parent"` // index of the parent segment, -1 for the root
	Span        partition.Span     `json:"span"`
	Datum       *percent.LevelNode `json:"-"` // tooltip and event payload
}

// Name returns the name of the slice behind the segment.
func (s DiskSegment) Name() string {
	if s.Datum == nil {
		return ""
	}
	return s.Datum.Name
}

// Thickness returns OuterRadius - InnerRadius.
func (s DiskSegment) Thickness() float64 { return s.OuterRadius - s.InnerRadius }

// Build emits one segment per layout node, in input order.
func Build(nodes []partition.Node, opts Options) []DiskSegment {
	color := opts.Color
	if color == nil {
		color = styles.Default().Func()
	}

	segs := make([]DiskSegment, 0, len(nodes))
	for _, n := range nodes {
		seg := DiskSegment{
			ColorKey: color(n.Name()),
			Depth:    n.Depth,
			Root:     n.Root,
			Parent:   n.Parent,
			Span:     n.Span,
			Datum:    n.Level,
		}
		if !n.Root {
			seg.InnerRadius = opts.Scale(n.InnerRadius)
			seg.OuterRadius = opts.Scale(n.OuterRadius)
		}
		segs = append(segs, seg)
	}
	return segs
}
