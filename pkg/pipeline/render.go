package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/core/percent"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
	cio "github.com/matzehuels/crosssection/pkg/io"
	"github.com/matzehuels/crosssection/pkg/render/nodelink"
	"github.com/matzehuels/crosssection/pkg/render/sink"
)

// Render generates output artifacts in the requested formats. The cross
// section visualization draws scene; the tree visualization ignores it and
// works from doc.
func Render(ctx context.Context, doc hierarchy.Document, scene *chart.Scene, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	if opts.IsTree() {
		return renderTree(ctx, doc, opts)
	}
	if scene == nil {
		return nil, errors.New(errors.ErrCodeInternal, "render without a scene")
	}
	return renderScene(ctx, scene, opts)
}

func renderScene(ctx context.Context, s *chart.Scene, opts Options) (map[string][]byte, error) {
	style := opts.StyleValue()
	svgOpts := []sink.SVGOption{
		sink.WithStyle(style),
		sink.WithTooltips(!opts.HideTooltips),
		sink.WithLegend(!opts.HideLegend),
	}
	pngOpts := []sink.PNGOption{sink.WithPNGStyle(style), sink.WithPNGLegend(!opts.HideLegend)}
	if opts.Columns > 0 {
		svgOpts = append(svgOpts, sink.WithColumns(opts.Columns))
		pngOpts = append(pngOpts, sink.WithPNGColumns(opts.Columns))
	}
	if opts.Scale > 0 {
		pngOpts = append(pngOpts, sink.WithScale(opts.Scale))
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data = sink.RenderSVG(s, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(s, pngOpts...)
		case FormatPDF:
			data, err = sink.RenderPDF(s, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(s, sink.WithJSONStyle(style))
		case FormatX3D:
			data, err = sink.RenderX3D(s)
		case FormatSTL:
			data, err = sink.RenderSTL(s)
		case FormatMesh:
			data, err = sink.RenderMeshJSON(s)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		opts.Logger.Debug("rendered", "format", format, "bytes", len(data))
	}
	return artifacts, nil
}

// renderTree draws the annotated hierarchy of chart opts.Chart.
func renderTree(ctx context.Context, doc hierarchy.Document, opts Options) (map[string][]byte, error) {
	if opts.Chart >= len(doc.Charts) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "chart index %d out of range (document has %d charts)", opts.Chart, len(doc.Charts))
	}
	tree := doc.Charts[opts.Chart].Slices
	if tree == nil {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "chart %d has no slices", opts.Chart)
	}

	root, err := percent.Assign(tree, opts.Policy())
	if err != nil {
		return nil, err
	}
	color, err := opts.ColorFunc()
	if err != nil {
		return nil, err
	}
	dot := nodelink.ToDOT(root, nodelink.Options{Detailed: opts.Detailed, Color: color})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			var buf bytes.Buffer
			err = cio.WriteAnnotated(&buf, root)
			data = buf.Bytes()
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported tree format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
