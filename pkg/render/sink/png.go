package sink

import (
	"bytes"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	style      styles.Style
	columns    int
	scale      float64
	background string
	legend     bool
}

// WithPNGStyle selects the disk or sunburst layout.
func WithPNGStyle(s styles.Style) PNGOption { return func(r *pngRenderer) { r.style = s } }

// WithPNGColumns sets how many panels are placed per row (default 3).
func WithPNGColumns(n int) PNGOption { return func(r *pngRenderer) { r.columns = n } }

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithPNGLegend toggles the name and colour legend (default on).
func WithPNGLegend(on bool) PNGOption { return func(r *pngRenderer) { r.legend = on } }

// WithBackground fills the image with color before drawing (default white).
func WithBackground(color string) PNGOption { return func(r *pngRenderer) { r.background = color } }

// RenderPNG rasterizes the scene with fogleman/gg. Unlike PDF output it
// needs no external tools.
func RenderPNG(s *chart.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{style: styles.StyleDisk, columns: 3, scale: 2.0, background: "#ffffff", legend: true}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsNaN(r.scale) || math.IsInf(r.scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid PNG scale: %v", r.scale)
	}

	pg := layoutPage(s, r.style, r.columns)
	if r.legend {
		pg.addLegend(s)
	}
	w := int(math.Ceil(pg.Width * r.scale))
	h := int(math.Ceil(pg.Height * r.scale))
	dc := gg.NewContext(w, h)
	dc.Scale(r.scale, r.scale)

	if r.background != "" {
		dc.SetHexColor(r.background)
		dc.Clear()
	}

	for _, p := range pg.Panels {
		for _, sh := range p.Shapes {
			drawShape(dc, p, sh)
		}
		if p.Title != "" {
			dc.SetHexColor("#333333")
			dc.DrawStringAnchored(p.Title, p.CX, p.Y+titleHeight/2, 0.5, 0.5)
		}
	}
	for i, e := range pg.Legend {
		x, y := pg.legendSwatchAt(i)
		dc.DrawRectangle(x, y, legendSwatch, legendSwatch)
		dc.SetHexColor(e.Color)
		dc.Fill()
		dc.SetHexColor("#333333")
		dc.DrawStringAnchored(e.Name, x+legendSwatch+6, y+legendSwatch/2, 0, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func drawShape(dc *gg.Context, p panel, sh shape) {
	dc.NewSubPath()
	if sh.wedge() {
		// gg measures angles from 3 o'clock; the page from 12 o'clock.
		a0, a1 := sh.A0-math.Pi/2, sh.A1-math.Pi/2
		if sh.R0 > 0 {
			dc.DrawArc(p.CX, p.CY, sh.R1, a0, a1)
			dc.DrawArc(p.CX, p.CY, sh.R0, a1, a0)
		} else {
			dc.MoveTo(p.CX, p.CY)
			dc.DrawArc(p.CX, p.CY, sh.R1, a0, a1)
		}
		dc.ClosePath()
		dc.SetFillRule(gg.FillRuleWinding)
	} else {
		dc.DrawCircle(p.CX, p.CY, sh.R1)
		if sh.R0 > 0 {
			dc.NewSubPath()
			dc.DrawCircle(p.CX, p.CY, sh.R0)
		}
		dc.SetFillRule(gg.FillRuleEvenOdd)
	}

	dc.SetHexColor(sh.Color)
	dc.FillPreserve()
	dc.SetHexColor("#ffffff")
	dc.SetLineWidth(1)
	dc.Stroke()
}
