package sink

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style    styles.Style
	columns  int
	tooltips bool
	legend   bool
	stroke   string
}

// WithStyle selects the disk or sunburst layout.
func WithStyle(s styles.Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithColumns sets how many panels are placed per row (default 3).
func WithColumns(n int) SVGOption { return func(r *svgRenderer) { r.columns = n } }

// WithTooltips toggles the <title> tooltip on every segment (default on).
func WithTooltips(on bool) SVGOption { return func(r *svgRenderer) { r.tooltips = on } }

// WithLegend toggles the name and colour legend next to the panels
// (default on).
func WithLegend(on bool) SVGOption { return func(r *svgRenderer) { r.legend = on } }

// WithStroke sets the colour of the segment outlines (default white).
func WithStroke(color string) SVGOption { return func(r *svgRenderer) { r.stroke = color } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: styles.StyleDisk, columns: 3, tooltips: true, legend: true, stroke: "#ffffff"}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws the scene as SVG.
func RenderSVG(s *chart.Scene, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	pg := layoutPage(s, r.style, r.columns)
	if r.legend {
		pg.addLegend(s)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(int(math.Ceil(pg.Width)), int(math.Ceil(pg.Height)),
		`font-family="Helvetica,Arial,sans-serif" font-size="14"`)
	canvas.Title(fmt.Sprintf("cross-section %s", s.ID))

	for i, p := range pg.Panels {
		canvas.Gid(fmt.Sprintf("panel-%d", i))
		if p.Title != "" {
			canvas.Text(int(p.CX), int(p.Y+titleHeight-6), p.Title, `text-anchor="middle" fill="#333"`)
		}
		for _, sh := range p.Shapes {
			r.renderShape(canvas, p, sh)
		}
		canvas.Gend()
	}
	renderLegend(canvas, pg)

	canvas.End()
	return buf.Bytes()
}

func renderLegend(canvas *svg.SVG, pg page) {
	if len(pg.Legend) == 0 {
		return
	}
	canvas.Group(`class="legend"`)
	for i, e := range pg.Legend {
		x, y := pg.legendSwatchAt(i)
		canvas.Rect(int(x), int(y), int(legendSwatch), int(legendSwatch), fmt.Sprintf(`fill="%s"`, e.Color))
		canvas.Text(int(x+legendSwatch+6), int(y+legendSwatch-1), e.Name, `fill="#333" font-size="12"`)
	}
	canvas.Gend()
}

func (r svgRenderer) renderShape(canvas *svg.SVG, p panel, sh shape) {
	canvas.Group(`class="segment"`)
	if r.tooltips && sh.Tooltip != "" {
		canvas.Title(sh.Tooltip)
	}
	d := annulusPath(p.CX, p.CY, sh.R0, sh.R1)
	if sh.wedge() {
		d = wedgePath(p.CX, p.CY, sh.R0, sh.R1, sh.A0, sh.A1)
	}
	canvas.Path(d, fmt.Sprintf(`fill="%s" fill-rule="evenodd" stroke="%s" stroke-width="1"`, sh.Color, r.stroke))
	canvas.Gend()
}

// annulusPath draws the ring between r0 and r1 as two circles filled with
// the even-odd rule. r0 == 0 yields a full disc.
func annulusPath(cx, cy, r0, r1 float64) string {
	d := circlePath(cx, cy, r1)
	if r0 > 0 {
		d += " " + circlePath(cx, cy, r0)
	}
	return d
}

func circlePath(cx, cy, r float64) string {
	return fmt.Sprintf("M%.3f %.3f A%.3f %.3f 0 1 1 %.3f %.3f A%.3f %.3f 0 1 1 %.3f %.3f Z",
		cx+r, cy, r, r, cx-r, cy, r, r, cx+r, cy)
}

func wedgePath(cx, cy, r0, r1, a0, a1 float64) string {
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	ox0, oy0 := point(cx, cy, r1, a0)
	ox1, oy1 := point(cx, cy, r1, a1)
	ix1, iy1 := point(cx, cy, r0, a1)
	ix0, iy0 := point(cx, cy, r0, a0)
	if r0 <= 0 {
		return fmt.Sprintf("M%.3f %.3f L%.3f %.3f A%.3f %.3f 0 %d 1 %.3f %.3f Z",
			cx, cy, ox0, oy0, r1, r1, large, ox1, oy1)
	}
	return fmt.Sprintf("M%.3f %.3f A%.3f %.3f 0 %d 1 %.3f %.3f L%.3f %.3f A%.3f %.3f 0 %d 0 %.3f %.3f Z",
		ox0, oy0, r1, r1, large, ox1, oy1, ix1, iy1, r0, r0, large, ix0, iy0)
}
