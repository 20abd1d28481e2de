// Package io reads chart documents and writes annotated slice trees.
//
// # Overview
//
// A chart document is the result of a hierarchical aggregation: one or more
// slice trees, each a nested set of named buckets with numeric sizes. The
// package accepts the same document in JSON, YAML or TOML so that it can be
// produced by query tools, written by hand, or kept next to configuration.
//
// # Document Shapes
//
// Three shapes are accepted and normalized to a [hierarchy.Document]:
//
//	{"charts": [{"label": "2024", "slices": {...}}, ...]}   several charts
//	{"label": "2024", "slices": {...}}                      one chart
//	{"name": "root", "size": 0, "children": [...]}          a bare tree
//
// Every node has a name, a size and optional ordered children:
//
//	{
//	  "name": "root", "size": 0,
//	  "children": [
//	    {"name": "a", "size": 30},
//	    {"name": "b", "size": 70}
//	  ]
//	}
//
// Sizes are read as given. Sibling order is kept exactly as written.
//
// # Import
//
// Use [ReadFile] to read a document from a path (the format follows the file
// extension), or [Read] to decode any io.Reader in a given [Format]:
//
//	doc, err := io.ReadFile("sales.yaml")
//
// Both validate names and sizes; failures carry errors.ErrCodeInvalidDocument.
//
// # Export
//
// [WriteDocument] writes a document back in any format. [WriteAnnotated]
// writes a percentage-annotated tree as JSON, including the band and both
// percentages of every slice, for inspection or external tools.
package io
