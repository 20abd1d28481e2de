// Package sink provides output format renderers for cross-section scenes.
//
// # Overview
//
// A "sink" transforms a rendered [chart.Scene] into a final output format.
// This package provides renderers for:
//
//   - SVG: vector output with a tooltip per segment (ajstarks/svgo)
//   - PNG: raster output drawn natively (fogleman/gg)
//   - PDF: print-ready output (requires rsvg-convert)
//   - JSON: scene export with absolute and normalized radii
//   - X3D: the hemisphere scene for x3dom and other X3D viewers
//   - STL and mesh JSON: stacked ring solids (deadsy/sdfx)
//
// # 2D styles
//
// The SVG, PNG and PDF sinks share one page layout and two styles:
//
//   - [styles.StyleDisk] draws one panel per group. A panel shows the
//     children of its group as concentric annuli between their radii,
//     which is the top view of that group's disk.
//   - [styles.StyleSunburst] draws one panel per chart, every segment a
//     wedge of its angular span on the ring of its depth.
//
// Basic usage:
//
//	svg := sink.RenderSVG(scene, sink.WithStyle(styles.StyleSunburst))
//	png, err := sink.RenderPNG(scene, sink.WithScale(2))
//
// # 3D output
//
// [RenderX3D] emits the scene as three orthogonal cross-sections through a
// dish. [RenderSTL] and [RenderMeshJSON] extrude each segment into a ring
// of [WithLayerHeight] thickness; every group of siblings is one layer and
// layers are stacked in pre-order along Z.
//
// # Adding New Formats
//
// To add a new output format:
//
//  1. Create a renderer function: func RenderFoo(s *chart.Scene, opts ...FooOption) ([]byte, error)
//  2. Define option types for configuration
//  3. Walk s.Charts and their Segments, in order
//  4. Register the format in pkg/pipeline and internal/cli/render.go
//
// [chart.Scene]: github.com/matzehuels/crosssection/pkg/chart.Scene
// [styles.StyleDisk]: github.com/matzehuels/crosssection/pkg/render/styles.StyleDisk
// [styles.StyleSunburst]: github.com/matzehuels/crosssection/pkg/render/styles.StyleSunburst
package sink
