package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/crosssection/pkg/core/percent"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

type annotatedNode struct {
	Name            string           `json:"name"`
	Size            float64          `json:"size"`
	Root            bool             `json:"root,omitempty"`
	SumOfChildren   float64          `json:"sum_of_children"`
	PercentOfGroup  float64          `json:"percent_of_group"`
	PercentOfParent float64          `json:"percent_of_parent"`
	InnerRadius     float64          `json:"inner_radius"`
	OuterRadius     float64          `json:"outer_radius"`
	Children        []*annotatedNode `json:"children,omitempty"`
}

func annotate(n *percent.LevelNode) *annotatedNode {
	out := &annotatedNode{
		Name:            n.Name,
		Size:            n.Size,
		Root:            n.Root,
		SumOfChildren:   n.SumOfChildren,
		PercentOfGroup:  n.PercentOfGroup,
		PercentOfParent: n.PercentOfParent,
		InnerRadius:     n.InnerRadius,
		OuterRadius:     n.OuterRadius,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, annotate(c))
	}
	return out
}

// WriteAnnotated encodes a percentage-annotated tree as indented JSON.
func WriteAnnotated(w io.Writer, root *percent.LevelNode) error {
	if root == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil annotated tree")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(annotate(root)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDocument encodes doc in the given format. The output can be read
// back with [Read].
func WriteDocument(w io.Writer, doc hierarchy.Document, format Format) error {
	var err error
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(doc)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported document format: %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}
