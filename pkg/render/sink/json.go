package sink

import (
	"encoding/json"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	style styles.Style
}

// WithJSONStyle records the style name in the output for round-trip rendering.
func WithJSONStyle(s styles.Style) JSONOption { return func(r *jsonRenderer) { r.style = s } }

type jsonOutput struct {
	ID     string      `json:"id"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Bound  float64     `json:"bound"`
	Hole   float64     `json:"hole,omitempty"`
	Donut  bool        `json:"donut,omitempty"`
	Style  string      `json:"style,omitempty"`
	Charts []jsonChart `json:"charts"`
}

type jsonChart struct {
	Label    string        `json:"label,omitempty"`
	Levels   int           `json:"levels"`
	Segments []jsonSegment `json:"segments"`
}

type jsonSegment struct {
	Name            string  `json:"name"`
	Size            float64 `json:"size"`
	Depth           int     `json:"depth"`
	Parent          int     `json:"parent"`
	Root            bool    `json:"root,omitempty"`
	Color           string  `json:"color"`
	InnerRadius     float64 `json:"inner_radius"`
	OuterRadius     float64 `json:"outer_radius"`
	NormInner       float64 `json:"norm_inner"`
	NormOuter       float64 `json:"norm_outer"`
	PercentOfGroup  float64 `json:"percent_of_group"`
	PercentOfParent float64 `json:"percent_of_parent"`
	X0              float64 `json:"x0"`
	X1              float64 `json:"x1"`
}

// RenderJSON exports the scene as a pretty-printed JSON document with both
// the absolute radii of every segment and the normalized values they were
// scaled from. It does not modify the scene and is safe to call
// concurrently.
func RenderJSON(s *chart.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		ID:     s.ID.String(),
		Width:  s.Width,
		Height: s.Height,
		Bound:  s.Bound,
		Hole:   s.Hole,
		Donut:  s.Donut,
		Style:  string(r.style),
		Charts: make([]jsonChart, 0, len(s.Charts)),
	}
	for _, c := range s.Charts {
		jc := jsonChart{Label: c.Label, Levels: c.Levels, Segments: make([]jsonSegment, 0, len(c.Segments))}
		for _, seg := range c.Segments {
			js := jsonSegment{
				Name:        seg.Name(),
				Depth:       seg.Depth,
				Parent:      seg.Parent,
				Root:        seg.Root,
				Color:       seg.ColorKey,
				InnerRadius: seg.InnerRadius,
				OuterRadius: seg.OuterRadius,
				X0:          seg.Span.X0,
				X1:          seg.Span.X1,
			}
			if d := seg.Datum; d != nil {
				js.Size = d.Size
				js.NormInner = d.InnerRadius
				js.NormOuter = d.OuterRadius
				js.PercentOfGroup = d.PercentOfGroup
				js.PercentOfParent = d.PercentOfParent
			}
			jc.Segments = append(jc.Segments, js)
		}
		out.Charts = append(out.Charts, jc)
	}

	return json.MarshalIndent(out, "", "  ")
}
