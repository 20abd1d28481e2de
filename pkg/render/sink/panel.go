package sink

import (
	"fmt"
	"math"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/core/geometry"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

const (
	titleHeight = 24.0
	fullTurn    = 1 - 1e-9

	legendWidth  = 160.0
	legendRow    = 20.0
	legendSwatch = 12.0
	legendInset  = 16.0
)

// panel is one circular drawing area of a 2D page.
type panel struct {
	X, Y   float64 // top-left corner
	CX, CY float64 // centre of the circle
	Title  string
	Shapes []shape
}

// shape is either a full annulus (A0 == A1 == 0) or an annular wedge.
type shape struct {
	R0, R1  float64
	A0, A1  float64 // radians, clockwise from 12 o'clock
	Color   string
	Tooltip string
}

func (s shape) wedge() bool { return s.A0 != 0 || s.A1 != 0 }

// page is the laid-out drawing of a whole scene.
type page struct {
	Width, Height float64
	Panels        []panel

	// Legend lists every drawn slice name once; LegendX is the left edge
	// of the legend column.
	Legend  []legendEntry
	LegendX float64
}

type legendEntry struct {
	Name, Color string
}

// addLegend appends a legend column to the right of the panels. Names are
// listed in the order they first appear, since the colour of a slice
// depends only on its name.
func (pg *page) addLegend(s *chart.Scene) {
	seen := make(map[string]bool)
	for _, c := range s.Charts {
		for _, seg := range c.Segments {
			if seg.Root || seg.Thickness() <= 0 || seen[seg.Name()] {
				continue
			}
			seen[seg.Name()] = true
			pg.Legend = append(pg.Legend, legendEntry{Name: seg.Name(), Color: seg.ColorKey})
		}
	}
	if len(pg.Legend) == 0 {
		return
	}
	pg.LegendX = pg.Width
	pg.Width += legendWidth
	pg.Height = math.Max(pg.Height, titleHeight+float64(len(pg.Legend))*legendRow)
}

// legendSwatchAt returns the top-left corner of the swatch of entry i.
func (pg page) legendSwatchAt(i int) (float64, float64) {
	return pg.LegendX + legendInset, titleHeight + float64(i)*legendRow
}

// layoutPage arranges the scene into panels.
//
// The disk style shows one panel per group: the root and every segment
// with children. A panel holds the direct children of its group as
// concentric annuli, which is the cross-section of that group.
//
// The sunburst style shows one panel per chart with every segment as a
// wedge of its angular span on the ring of its depth.
func layoutPage(s *chart.Scene, style styles.Style, columns int) page {
	var panels []panel
	for _, c := range s.Charts {
		switch style {
		case styles.StyleSunburst:
			panels = append(panels, sunburstPanel(s, c))
		default:
			panels = append(panels, diskPanels(c)...)
		}
	}

	columns = max(1, min(columns, len(panels)))
	rows := (len(panels) + columns - 1) / columns
	cellW, cellH := s.Width, s.Height+titleHeight
	for i := range panels {
		col, row := i%columns, i/columns
		panels[i].X = float64(col) * cellW
		panels[i].Y = float64(row) * cellH
		panels[i].CX = panels[i].X + cellW/2
		panels[i].CY = panels[i].Y + titleHeight + s.Height/2
	}

	return page{
		Width:  float64(columns) * cellW,
		Height: float64(max(rows, 1)) * cellH,
		Panels: panels,
	}
}

func diskPanels(c chart.ChartScene) []panel {
	children := make(map[int][]int)
	for i, seg := range c.Segments {
		if seg.Parent >= 0 {
			children[seg.Parent] = append(children[seg.Parent], i)
		}
	}

	var panels []panel
	for i, seg := range c.Segments {
		kids := children[i]
		if len(kids) == 0 {
			continue
		}
		p := panel{Title: panelTitle(c.Label, seg)}
		for _, k := range kids {
			child := c.Segments[k]
			if child.Thickness() <= 0 {
				continue
			}
			p.Shapes = append(p.Shapes, shape{
				R0:      child.InnerRadius,
				R1:      child.OuterRadius,
				Color:   child.ColorKey,
				Tooltip: tooltip(child),
			})
		}
		panels = append(panels, p)
	}
	return panels
}

func sunburstPanel(s *chart.Scene, c chart.ChartScene) panel {
	p := panel{Title: c.Label}
	ring := func(y float64) float64 { return s.Hole + y*(s.Bound-s.Hole) }
	for _, seg := range c.Segments {
		if seg.Root || seg.Span.Width() <= 0 {
			continue
		}
		sh := shape{
			R0:      ring(seg.Span.Y0),
			R1:      ring(seg.Span.Y1),
			Color:   seg.ColorKey,
			Tooltip: tooltip(seg),
		}
		if seg.Span.Width() < fullTurn {
			sh.A0 = seg.Span.X0 * 2 * math.Pi
			sh.A1 = seg.Span.X1 * 2 * math.Pi
		}
		p.Shapes = append(p.Shapes, sh)
	}
	return p
}

func panelTitle(label string, group geometry.DiskSegment) string {
	switch {
	case group.Root && label != "":
		return label
	case group.Root:
		return group.Name()
	case label != "":
		return label + " / " + group.Name()
	}
	return group.Name()
}

func tooltip(seg geometry.DiskSegment) string {
	d := seg.Datum
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s: %g (%.1f%% of group, %.1f%% of total)",
		d.Name, d.Size, d.PercentOfGroup*100, d.PercentOfParent*100)
}

// point returns the position at radius r and angle a around (cx, cy), with
// angle 0 at 12 o'clock and increasing clockwise.
func point(cx, cy, r, a float64) (float64, float64) {
	return cx + r*math.Sin(a), cy - r*math.Cos(a)
}
