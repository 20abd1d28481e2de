// Package pipeline provides the chart pipeline shared by the CLI and the
// HTTP server.
//
// The pipeline runs a chart document through two stages:
//
//  1. Layout: validate the document and the surface, assign percentages,
//     partition the tree and scale it into disk segments (a [chart.Scene])
//  2. Render: produce the requested outputs (SVG, PNG, PDF, JSON, X3D,
//     STL, mesh JSON) from the scene
//
// The "tree" visualization skips the layout stage and renders the
// annotated hierarchy with Graphviz instead.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Formats: []string{"svg", "stl"},
//	    Donut:   true,
//	})
//	svg := result.Artifacts["svg"]
//
// Options are defaulted and validated in one place, [Options.ValidateAndSetDefaults],
// so every entry point accepts and rejects the same inputs.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/crosssection/pkg/cache"
	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/core/percent"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

const (
	// DefaultWidth is the default surface width in pixels.
	DefaultWidth = 400.0

	// DefaultHeight is the default surface height in pixels.
	DefaultHeight = 400.0

	// DefaultZeroPolicy is the default handling of zero-sum subtrees.
	DefaultZeroPolicy = "zero-width"
)

// Visualization types.
const (
	VizCrossSection = "crosssection"
	VizTree         = "tree"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizCrossSection

// DefaultStyle is the default 2D page style.
const DefaultStyle = string(styles.StyleDisk)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatX3D  = "x3d"
	FormatSTL  = "stl"
	FormatMesh = "mesh"
	FormatDOT  = "dot"
)

// ValidFormats lists the formats each visualization type can produce.
var ValidFormats = map[string][]string{
	VizCrossSection: {FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatX3D, FormatSTL, FormatMesh},
	VizTree:         {FormatSVG, FormatPDF, FormatDOT, FormatJSON},
}

// ContentTypes maps formats to their MIME types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
	FormatX3D:  "model/x3d+xml",
	FormatSTL:  "model/stl",
	FormatMesh: "application/json",
	FormatDOT:  "text/vnd.graphviz",
}

// Options configures one pipeline run. It is also the JSON shape of the
// options accepted by the HTTP API.
type Options struct {
	// Layout options
	Width        float64           `json:"width,omitempty" validate:"gte=0"`
	Height       float64           `json:"height,omitempty" validate:"gte=0"`
	Donut        bool              `json:"donut,omitempty"`
	DonutHole    float64           `json:"donut_hole,omitempty" validate:"gte=0,lt=1"`
	MarginFactor float64           `json:"margin_factor,omitempty" validate:"gte=0,lte=1"`
	ZeroPolicy   string            `json:"zero_policy,omitempty"`
	Colors       map[string]string `json:"colors,omitempty"`

	// Render options
	VizType      string   `json:"viz_type,omitempty"`
	Formats      []string `json:"formats,omitempty"`
	Style        string   `json:"style,omitempty"`
	Columns      int      `json:"columns,omitempty" validate:"gte=0,lte=64"`
	HideTooltips bool     `json:"hide_tooltips,omitempty"`
	HideLegend   bool     `json:"hide_legend,omitempty"`
	Scale        float64  `json:"scale,omitempty" validate:"gte=0,lte=8"`
	Refresh      bool     `json:"refresh,omitempty"`

	// Tree options: show sizes and bands, and pick the chart to draw.
	Detailed bool `json:"detailed,omitempty"`
	Chart    int  `json:"chart,omitempty" validate:"gte=0"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" validate:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DocumentHash is the content hash of the input document.
	DocumentHash string

	// Scene is the computed layout; nil for the tree visualization.
	Scene *chart.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Charts     int
	Nodes      int
	Segments   int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateFormat checks that format is valid for vizType.
func ValidateFormat(vizType, format string) error {
	valid, ok := ValidFormats[vizType]
	if !ok {
		return ValidateVizType(vizType)
	}
	if !slices.Contains(valid, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format for %s: %q (must be one of: %s)",
			vizType, format, strings.Join(valid, ", "))
	}
	return nil
}

// ValidateFormats checks every format for vizType.
func ValidateFormats(vizType string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(vizType, f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	_, err := styles.ParseStyle(style)
	return err
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if _, ok := ValidFormats[vizType]; !ok {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid viz_type: %q (must be one of: %s, %s)",
			vizType, VizCrossSection, VizTree)
	}
	return nil
}

// ValidateAndSetDefaults applies every default and validates the result.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.ZeroPolicy == "" {
		o.ZeroPolicy = DefaultZeroPolicy
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout sets layout defaults and validates the layout options.
// A surface that is too small is not rejected here: the chart reports it
// as CONTAINER_TOO_SMALL when it renders.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := structValidator.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	if _, err := percent.ParsePolicy(o.ZeroPolicy); err != nil {
		return err
	}
	_, err := o.ColorFunc()
	return err
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender sets render defaults and validates the render options.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.VizType, o.Formats); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := structValidator.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	return nil
}

// IsTree reports whether this is a tree visualization.
func (o *Options) IsTree() bool {
	return o.VizType == VizTree
}

// Policy returns the parsed zero-sum policy.
func (o *Options) Policy() percent.Policy {
	p, err := percent.ParsePolicy(o.ZeroPolicy)
	if err != nil {
		return percent.PolicyZeroWidth
	}
	return p
}

// StyleValue returns the parsed page style.
func (o *Options) StyleValue() styles.Style {
	s, err := styles.ParseStyle(o.Style)
	if err != nil {
		return styles.StyleDisk
	}
	return s
}

// ColorFunc builds the default palette with the colour overrides applied.
func (o *Options) ColorFunc() (styles.ColorFunc, error) {
	p := styles.Default()
	for name, c := range o.Colors {
		if err := p.Override(name, c); err != nil {
			return nil, err
		}
	}
	return p.Func(), nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:        o.Width,
		Height:       o.Height,
		MarginFactor: o.MarginFactor,
		Donut:        o.Donut,
		DonutHole:    o.DonutHole,
		ZeroPolicy:   o.ZeroPolicy,
		Colors:       o.Colors,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		VizType: o.VizType,
		Format:  format,
	}
	if o.IsTree() {
		k.Detailed = o.Detailed
		k.Chart = o.Chart
		return k
	}
	k.Style = o.Style
	k.Columns = o.Columns
	k.HideTooltips = o.HideTooltips
	k.HideLegend = o.HideLegend
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// documentHash fingerprints a document for cache keys.
func documentHash(doc hierarchy.Document) (string, error) {
	h, err := cache.HashValue(doc)
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	return h, nil
}
