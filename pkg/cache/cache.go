// Package cache stores computed chart layouts and rendered artifacts.
//
// Layout and rendering are pure functions of the input document and the
// render options, so their results can be reused across CLI invocations
// (see [FileCache]) or shared between server replicas (see [RedisCache]).
//
// Keys come from a [Keyer]: the document is hashed with [Hash], and the
// options that influence the output are folded into the key. Two renders
// with the same document and options therefore hit the same entry.
//
// Backends treat a miss as (nil, false, nil). Errors are reserved for
// storage failures; the pipeline runner ignores them and recomputes.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values for cached entries.
const (
	// TTLLayout is how long computed segment layouts are kept.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is how long rendered outputs are kept.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is reported
	// as hit=false with a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the options that change the computed segments.
type LayoutKeyOpts struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MarginFactor float64 `json:"margin_factor"`
	Donut        bool    `json:"donut"`
	DonutHole    float64 `json:"donut_hole,omitempty"`
	ZeroPolicy   string  `json:"zero_policy"`
	// Colors are the palette overrides; segments carry resolved colours.
	Colors map[string]string `json:"colors,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered output but not
// the layout it was rendered from.
type ArtifactKeyOpts struct {
	VizType      string  `json:"viz_type"`
	Format       string  `json:"format"`
	Style        string  `json:"style,omitempty"`
	Columns      int     `json:"columns,omitempty"`
	HideTooltips bool    `json:"hide_tooltips,omitempty"`
	HideLegend   bool    `json:"hide_legend,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	Detailed     bool    `json:"detailed,omitempty"`
	Chart        int     `json:"chart,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key for the segments of a document.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for one rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>" over the document hash and opts.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey returns "artifact:<sha256>" over the layout hash and opts.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
