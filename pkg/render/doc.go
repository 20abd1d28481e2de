// Package render provides visualization rendering for cross-section charts.
//
// # Overview
//
// This package contains the output side of the chart pipeline:
//
//   - Generic format conversion (SVG to PDF)
//   - Output sinks for rendered scenes (in [sink] subpackage)
//   - The X3D hemisphere scene graph (in [scene] subpackage)
//   - Colours and drawing styles (in [styles] subpackage)
//   - Tree diagrams of the annotated hierarchy (in [nodelink] subpackage)
//
// # Format Conversion
//
// The [ToPDF] function converts any SVG to PDF using the external
// rsvg-convert tool (from librsvg). It is used by both the chart sinks and
// the tree diagrams.
//
//	svg := sink.RenderSVG(scene)
//	pdf, err := render.ToPDF(svg)
//
// # Tree Diagrams
//
// The [nodelink] subpackage renders the percentage-annotated hierarchy as a
// Graphviz tree, one box per slice, which is handy when checking why a
// band has the width it has.
//
//	dot := nodelink.ToDOT(levelRoot, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [sink]: github.com/matzehuels/crosssection/pkg/render/sink
// [scene]: github.com/matzehuels/crosssection/pkg/render/scene
// [styles]: github.com/matzehuels/crosssection/pkg/render/styles
// [nodelink]: github.com/matzehuels/crosssection/pkg/render/nodelink
package render
