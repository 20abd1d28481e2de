package chart_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

func Example() {
	slices := hierarchy.Group("root", 0,
		hierarchy.Leaf("a", 30),
		hierarchy.Leaf("b", 70),
	)
	c := chart.New(
		[]hierarchy.Chart{{Slices: slices}},
		chart.WithSurface(chart.FixedSurface{Width: 400, Height: 400}),
	)

	scene, err := c.Render(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, s := range scene.Segments() {
		fmt.Printf("%s depth=%d [%.1f, %.1f]\n", s.Name(), s.Depth, s.InnerRadius, s.OuterRadius)
	}
	// Output:
	// root depth=0 [0.0, 0.0]
	// a depth=1 [0.0, 57.0]
	// b depth=1 [57.0, 190.0]
}

func ExampleRadialChart_Render_tooSmall() {
	c := chart.New(
		[]hierarchy.Chart{{Slices: hierarchy.Group("root", 0, hierarchy.Leaf("a", 1))}},
		chart.WithSurface(chart.FixedSurface{Width: 10, Height: 500}),
	)
	_, err := c.Render(context.Background())
	fmt.Println(err)
	// Output:
	// container too small: 10x500 (both sides must exceed 20)
}
