// Package chart owns the lifecycle of a cross-section chart.
//
// A [RadialChart] composes the four pipeline stages
//
//	validate → percent → partition → geometry
//
// and hands the result to a [Renderer] as an explicit [Scene] handle. The
// chart has three states: Unrendered, Rendered and Destroyed. Render moves
// Unrendered or Rendered to Rendered; Destroy moves any state to Destroyed,
// which is terminal.
//
// Render runs every validation and computation before it touches the
// previous scene. A failed render therefore leaves the last good scene on
// the surface. Only once the new scene is complete is the old one cleared
// and the new one drawn.
//
// A RadialChart is not safe for concurrent use. Callers serialize Render
// and Destroy; there is no internal queue.
package chart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/crosssection/pkg/core/geometry"
	"github.com/matzehuels/crosssection/pkg/core/partition"
	"github.com/matzehuels/crosssection/pkg/core/percent"
	"github.com/matzehuels/crosssection/pkg/core/validate"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

// State is the lifecycle state of a RadialChart.
type State int

const (
	Unrendered State = iota
	Rendered
	Destroyed
)

func (s State) String() string {
	switch s {
	case Unrendered:
		return "unrendered"
	case Rendered:
		return "rendered"
	case Destroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Surface reports the current drawable size. It is queried on every render.
type Surface interface {
	Size() (width, height float64)
}

// FixedSurface is a Surface of constant size.
type FixedSurface struct {
	Width, Height float64
}

func (s FixedSurface) Size() (float64, float64) { return s.Width, s.Height }

// Renderer puts a scene on the surface and takes it off again.
type Renderer interface {
	Draw(scene *Scene) error
	Clear(scene *Scene)
}

// Tooltip is the tooltip attached to drawn segments.
type Tooltip interface {
	Hide()
}

// Listeners is the set of event handlers bound to drawn segments.
type Listeners interface {
	RemoveAll()
}

// Scene is the output of one render.
type Scene struct {
	ID     uuid.UUID    `json:"id"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Donut  bool         `json:"donut,omitempty"`
	Bound  float64      `json:"bound"`
	Hole   float64      `json:"hole,omitempty"`
	Charts []ChartScene `json:"charts"`
}

// ChartScene holds the segments of one chart of the scene.
type ChartScene struct {
	Label    string                 `json:"label,omitempty"`
	Levels   int                    `json:"levels"`
	Root     *percent.LevelNode     `json:"-"`
	Segments []geometry.DiskSegment `json:"segments"`
}

// Segments returns the segments of every chart in scene order.
func (s *Scene) Segments() []geometry.DiskSegment {
	var out []geometry.DiskSegment
	for _, c := range s.Charts {
		out = append(out, c.Segments...)
	}
	return out
}

// Option configures a RadialChart.
type Option func(*RadialChart)

// WithSurface sets the surface queried for the render size.
func WithSurface(s Surface) Option { return func(c *RadialChart) { c.surface = s } }

// WithRenderer sets the renderer that receives finished scenes.
func WithRenderer(r Renderer) Option { return func(c *RadialChart) { c.renderer = r } }

// WithTooltip sets the tooltip hidden on destroy.
func WithTooltip(t Tooltip) Option { return func(c *RadialChart) { c.tooltip = t } }

// WithListeners sets the event handlers released on destroy.
func WithListeners(l Listeners) Option { return func(c *RadialChart) { c.listeners = l } }

// WithColor sets the colour function.
func WithColor(f styles.ColorFunc) Option { return func(c *RadialChart) { c.color = f } }

// WithPolicy sets the zero-sum subtree policy.
func WithPolicy(p percent.Policy) Option { return func(c *RadialChart) { c.policy = p } }

// WithDonut draws the chart as a donut instead of a pie.
func WithDonut(donut bool) Option { return func(c *RadialChart) { c.donut = donut } }

// WithDonutHole sets the donut hole as a fraction of the bound radius,
// overriding geometry.DefaultDonutHole. It has no effect without WithDonut.
func WithDonutHole(f float64) Option { return func(c *RadialChart) { c.hole = f } }

// WithMarginFactor overrides geometry.DefaultMarginFactor.
func WithMarginFactor(f float64) Option { return func(c *RadialChart) { c.margin = f } }

// RadialChart renders one or more charts as stacked disks.
type RadialChart struct {
	charts    []hierarchy.Chart
	surface   Surface
	renderer  Renderer
	tooltip   Tooltip
	listeners Listeners
	color     styles.ColorFunc
	policy    percent.Policy
	donut     bool
	hole      float64
	margin    float64

	state State
	last  *Scene
}

// New creates an unrendered chart over charts. Without WithSurface the
// chart renders onto a 400x400 FixedSurface.
func New(charts []hierarchy.Chart, opts ...Option) *RadialChart {
	c := &RadialChart{
		charts:  charts,
		surface: FixedSurface{Width: 400, Height: 400},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.color == nil {
		c.color = styles.Default().Func()
	}
	return c
}

// State returns the current lifecycle state.
func (c *RadialChart) State() State { return c.state }

// Scene returns the scene of the last successful render, or nil.
func (c *RadialChart) Scene() *Scene { return c.last }

// SetCharts replaces the chart data used by the next render.
func (c *RadialChart) SetCharts(charts []hierarchy.Chart) { c.charts = charts }

// Render validates the data and the surface, builds a new scene, and only
// then replaces the previous scene with it.
//
// Validation failures are returned as *errors.AllZerosError or
// *errors.ContainerTooSmallError. A zero-sum subtree under PolicyError
// returns *errors.DegenerateSubtreeError. In every failure case the
// previous scene stays drawn.
func (c *RadialChart) Render(ctx context.Context) (*Scene, error) {
	if c.state == Destroyed {
		return nil, errors.New(errors.ErrCodeChartDestroyed, "render after destroy")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := validate.Charts(c.charts); err != nil {
		return nil, err
	}
	width, height := c.surface.Size()
	if err := validate.Container(width, height); err != nil {
		return nil, err
	}

	scene, err := c.build(width, height)
	if err != nil {
		return nil, err
	}

	if c.last != nil && c.renderer != nil {
		c.renderer.Clear(c.last)
	}
	c.last = nil
	if c.renderer != nil {
		if err := c.renderer.Draw(scene); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "draw scene")
		}
	}
	c.last = scene
	c.state = Rendered
	return scene, nil
}

func (c *RadialChart) build(width, height float64) (*Scene, error) {
	opts := geometry.Options{
		Width:        width,
		Height:       height,
		MarginFactor: c.margin,
		Donut:        c.donut,
		DonutHole:    c.hole,
		Color:        c.color,
	}
	scene := &Scene{
		ID:     uuid.New(),
		Width:  width,
		Height: height,
		Donut:  c.donut,
		Bound:  opts.Bound(),
		Hole:   opts.Hole(),
	}

	assigner := percent.New(c.policy)
	for i, ch := range c.charts {
		if !ch.HasSlices() {
			continue
		}
		ln, err := assigner.Assign(ch.Slices)
		if err != nil {
			return nil, fmt.Errorf("chart %d: %w", i, err)
		}
		nodes := partition.Layout(ln)
		scene.Charts = append(scene.Charts, ChartScene{
			Label:    ch.Label,
			Levels:   partition.Levels(nodes),
			Root:     ln,
			Segments: geometry.Build(nodes, opts),
		})
	}
	return scene, nil
}

// Destroy releases listeners, hides the tooltip and clears the last scene.
// Destroy is idempotent.
func (c *RadialChart) Destroy() {
	if c.state == Destroyed {
		return
	}
	if c.listeners != nil {
		c.listeners.RemoveAll()
	}
	if c.tooltip != nil {
		c.tooltip.Hide()
	}
	if c.last != nil && c.renderer != nil {
		c.renderer.Clear(c.last)
	}
	c.last = nil
	c.state = Destroyed
}
