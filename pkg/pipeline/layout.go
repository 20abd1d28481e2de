package pipeline

import (
	"context"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

// ComputeLayout renders doc into a scene on a fixed surface of
// opts.Width x opts.Height. It does not consult any cache.
//
// Document and surface checks come from the chart: an all-empty document
// fails with ALL_ZEROS and a surface of 20 pixels or less on either side
// with CONTAINER_TOO_SMALL.
func ComputeLayout(ctx context.Context, doc hierarchy.Document, opts Options) (*chart.Scene, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	color, err := opts.ColorFunc()
	if err != nil {
		return nil, err
	}

	c := chart.New(doc.Charts,
		chart.WithSurface(chart.FixedSurface{Width: opts.Width, Height: opts.Height}),
		chart.WithPolicy(opts.Policy()),
		chart.WithDonut(opts.Donut),
		chart.WithDonutHole(opts.DonutHole),
		chart.WithMarginFactor(opts.MarginFactor),
		chart.WithColor(color),
	)
	defer c.Destroy()

	scene, err := c.Render(ctx)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("computed scene",
		"charts", len(scene.Charts),
		"bound", scene.Bound,
		"hole", scene.Hole)
	return scene, nil
}

// rejected reports whether err is one of the errors that refuse a document
// before anything is drawn.
func rejected(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeAllZeros, errors.ErrCodeContainerTooSmall, errors.ErrCodeDegenerateSubtree:
		return true
	}
	return false
}
