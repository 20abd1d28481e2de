package chart

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/matzehuels/crosssection/pkg/core/percent"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

// recorder implements every collaborator and logs the calls it receives.
type recorder struct {
	events  []string
	drawn   []*Scene
	failing bool
}

func (r *recorder) Draw(s *Scene) error {
	if r.failing {
		return stderrors.New("surface lost")
	}
	r.events = append(r.events, "draw")
	r.drawn = append(r.drawn, s)
	return nil
}

func (r *recorder) Clear(*Scene) { r.events = append(r.events, "clear") }
func (r *recorder) Hide()        { r.events = append(r.events, "hide") }
func (r *recorder) RemoveAll()   { r.events = append(r.events, "remove") }

// resizable is a Surface that counts how often it is queried.
type resizable struct {
	w, h    float64
	queries int
}

func (s *resizable) Size() (float64, float64) {
	s.queries++
	return s.w, s.h
}

func exampleCharts() []hierarchy.Chart {
	return []hierarchy.Chart{{
		Label:  "all",
		Slices: hierarchy.Group("root", 0, hierarchy.Leaf("a", 30), hierarchy.Leaf("b", 70)),
	}}
}

func TestRenderEndToEnd(t *testing.T) {
	rec := &recorder{}
	c := New(exampleCharts(), WithRenderer(rec))

	scene, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if c.State() != Rendered {
		t.Errorf("State() = %v, want rendered", c.State())
	}

	segs := scene.Segments()
	if len(segs) != 3 {
		t.Fatalf("len(Segments()) = %d, want 3", len(segs))
	}
	var outer []float64
	for _, s := range segs {
		if !s.Root {
			outer = append(outer, s.OuterRadius)
		}
	}
	if len(outer) != 2 || math.Abs(outer[0]-57) > 1e-9 || math.Abs(outer[1]-190) > 1e-9 {
		t.Errorf("outer radii = %v, want [57 190]", outer)
	}
	if scene.Charts[0].Label != "all" || scene.Charts[0].Levels != 2 {
		t.Errorf("chart scene = %+v, want label all with 2 levels", scene.Charts[0])
	}
	if len(rec.drawn) != 1 || rec.drawn[0] != scene {
		t.Error("renderer should receive the returned scene")
	}
}

func TestRenderAllZeros(t *testing.T) {
	rec := &recorder{}
	charts := []hierarchy.Chart{
		{Slices: hierarchy.Leaf("root", 0)},
		{Slices: hierarchy.Group("root", 0)},
	}
	c := New(charts, WithRenderer(rec))

	scene, err := c.Render(context.Background())
	var target *errors.AllZerosError
	if !stderrors.As(err, &target) {
		t.Fatalf("Render() error = %v, want *errors.AllZerosError", err)
	}
	if scene != nil {
		t.Error("failed render must not return a scene")
	}
	if len(rec.events) != 0 {
		t.Errorf("renderer events = %v, want none", rec.events)
	}
	if c.State() != Unrendered {
		t.Errorf("State() = %v, want unrendered", c.State())
	}
}

func TestRenderContainerTooSmall(t *testing.T) {
	c := New(exampleCharts(), WithSurface(FixedSurface{Width: 10, Height: 500}))

	_, err := c.Render(context.Background())
	var target *errors.ContainerTooSmallError
	if !stderrors.As(err, &target) {
		t.Fatalf("Render() error = %v, want *errors.ContainerTooSmallError", err)
	}
	if target.Width != 10 || target.Height != 500 {
		t.Errorf("error size = %vx%v, want 10x500", target.Width, target.Height)
	}
}

func TestRenderFailureKeepsPreviousScene(t *testing.T) {
	rec := &recorder{}
	surface := &resizable{w: 400, h: 400}
	c := New(exampleCharts(), WithRenderer(rec), WithSurface(surface))

	first, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	surface.w = 15
	if _, err := c.Render(context.Background()); !errors.Is(err, errors.ErrCodeContainerTooSmall) {
		t.Fatalf("Render() error = %v, want CONTAINER_TOO_SMALL", err)
	}
	if c.Scene() != first {
		t.Error("failed render must keep the previous scene")
	}
	if len(rec.events) != 1 || rec.events[0] != "draw" {
		t.Errorf("renderer events = %v, want [draw]", rec.events)
	}
	if surface.queries != 2 {
		t.Errorf("surface queried %d times, want 2", surface.queries)
	}
}

func TestRenderReplacesScene(t *testing.T) {
	rec := &recorder{}
	surface := &resizable{w: 400, h: 400}
	c := New(exampleCharts(), WithRenderer(rec), WithSurface(surface))

	first, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	surface.w, surface.h = 200, 200
	second, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("second Render() error: %v", err)
	}

	if first.ID == second.ID {
		t.Error("each render should produce a new scene ID")
	}
	if second.Bound != 95 {
		t.Errorf("Bound = %v, want 95 after resize", second.Bound)
	}
	want := []string{"draw", "clear", "draw"}
	if len(rec.events) != len(want) {
		t.Fatalf("renderer events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestRenderSkipsEmptyCharts(t *testing.T) {
	charts := append([]hierarchy.Chart{{Label: "empty", Slices: hierarchy.Leaf("root", 0)}}, exampleCharts()...)
	scene, err := New(charts).Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(scene.Charts) != 1 || scene.Charts[0].Label != "all" {
		t.Errorf("charts = %+v, want only the non-empty chart", scene.Charts)
	}
}

func TestRenderDegeneratePolicy(t *testing.T) {
	charts := []hierarchy.Chart{{Slices: hierarchy.Group("root", 0, hierarchy.Leaf("z", 0))}}

	if _, err := New(charts, WithPolicy(percent.PolicyError)).Render(context.Background()); !errors.Is(err, errors.ErrCodeDegenerateSubtree) {
		t.Errorf("PolicyError: Render() error = %v, want DEGENERATE_SUBTREE", err)
	}

	scene, err := New(charts).Render(context.Background())
	if err != nil {
		t.Fatalf("PolicyZeroWidth: Render() error: %v", err)
	}
	for _, s := range scene.Segments() {
		if math.IsNaN(s.InnerRadius) || math.IsNaN(s.OuterRadius) {
			t.Errorf("segment %q has NaN radius", s.Name())
		}
	}
}

func TestDestroy(t *testing.T) {
	rec := &recorder{}
	c := New(exampleCharts(), WithRenderer(rec), WithTooltip(rec), WithListeners(rec))

	if _, err := c.Render(context.Background()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	c.Destroy()
	c.Destroy()

	want := []string{"draw", "remove", "hide", "clear"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
	if c.State() != Destroyed || c.Scene() != nil {
		t.Errorf("after Destroy: state %v scene %v", c.State(), c.Scene())
	}

	if _, err := c.Render(context.Background()); !errors.Is(err, errors.ErrCodeChartDestroyed) {
		t.Errorf("Render() after Destroy error = %v, want CHART_DESTROYED", err)
	}
}

func TestDestroyUnrendered(t *testing.T) {
	rec := &recorder{}
	c := New(exampleCharts(), WithRenderer(rec), WithTooltip(rec))
	c.Destroy()
	if len(rec.events) != 1 || rec.events[0] != "hide" {
		t.Errorf("events = %v, want [hide]", rec.events)
	}
}

func TestRenderDrawFailure(t *testing.T) {
	rec := &recorder{failing: true}
	c := New(exampleCharts(), WithRenderer(rec))
	if _, err := c.Render(context.Background()); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Render() error = %v, want INTERNAL_ERROR", err)
	}
	if c.Scene() != nil {
		t.Error("failed draw must not record a scene")
	}
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(exampleCharts()).Render(ctx); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestStateString(t *testing.T) {
	if got := Destroyed.String(); got != "destroyed" {
		t.Errorf("Destroyed.String() = %q, want destroyed", got)
	}
}
