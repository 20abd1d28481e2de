// Package pkg provides the libraries behind crosssection, which draws
// hierarchical data (nested groups with numeric sizes) as concentric disk
// slices.
//
// # Overview
//
// A chart document holds one or more trees of slices. Each tree becomes a
// disk: the root sits in the middle, every level of the tree is a ring
// around it, and every slice covers a share of its parent's arc and a
// band of its ring proportional to its size.
//
// # Architecture
//
// The data flow through crosssection:
//
//	Chart document (JSON / YAML / TOML, file or URL)
//	         ↓
//	    [io] / [httputil] (decode, fetch)
//	         ↓
//	    [core/validate] (all zeros? surface too small?)
//	         ↓
//	    [core/percent] (percentOfGroup, percentOfParent, radii in [0,1])
//	         ↓
//	    [core/partition] (pre-order layout nodes with depth and span)
//	         ↓
//	    [core/geometry] (disk segments in pixels, with colours)
//	         ↓
//	    [render/sink] (SVG, PNG, PDF, JSON, X3D, STL, mesh)
//
// [chart] wires the core stages into a RadialChart with a render and
// destroy lifecycle, and [pipeline] runs charts with options, validation
// and a [cache].
//
// # Quick Start
//
//	doc := hierarchy.Single(hierarchy.Group("sales", 0,
//	    hierarchy.Leaf("north", 30),
//	    hierarchy.Leaf("south", 70),
//	))
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("sales.svg", result.Artifacts["svg"], 0o644)
//
// # Main Packages
//
// [hierarchy] - the input model: Node, Chart and Document.
//
// [core/percent] - pure percentage assignment, with a zero-sum policy for
// groups whose children sum to nothing.
//
// [core/partition] and [core/geometry] - the radial layout and its scaling
// onto a surface, as pie or donut.
//
// [chart] - the RadialChart lifecycle and the Scene it produces.
//
// [render/sink], [render/scene], [render/nodelink], [render/styles] - outputs,
// the X3D hemisphere scene, Graphviz tree diagrams and colours.
//
// [pipeline] - options, defaults, validation and cached execution.
//
// [cache] - file, memory and Redis caches with content-addressed keys.
//
// [observability] - hooks for metrics, with a Prometheus implementation.
//
// [errors] - coded errors shared by all packages.
//
// [buildinfo] - version information set at build time.
package pkg
