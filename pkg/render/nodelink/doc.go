// Package nodelink renders an annotated slice tree as a node-link diagram.
//
// # Overview
//
// This package produces top-down tree visualizations using Graphviz, where
// every slice appears as a box connected to its parent. It complements the
// cross-section view: the chart shows proportions, the tree shows where
// they come from.
//
// # Usage
//
// Convert a [percent.LevelNode] tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(root, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF output, use [RenderPDF], which converts the SVG with rsvg-convert.
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include the size, both percentages and the band
//   - Color: fills each box with the slice colour of the chart
//
// Slices with a zero-width band are drawn dashed and grey.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF conversion requires librsvg (rsvg-convert).
//
// [percent.LevelNode]: github.com/matzehuels/crosssection/pkg/core/percent.LevelNode
package nodelink
