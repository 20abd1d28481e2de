// Package styles holds the colour and drawing style choices shared by the
// cross-section sinks.
//
// Colours come from a [Palette]: a fixed list of hues spread evenly around
// the HCL wheel (github.com/lucasb-eyer/go-colorful), indexed by a hash of
// the slice name. The same name always maps to the same colour, in every
// chart of a render and across renders, without any shared state.
package styles

import (
	"hash/fnv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/crosssection/pkg/errors"
)

// ColorFunc resolves the colour of a slice from its name.
// Implementations must be deterministic for the duration of a render.
type ColorFunc func(name string) string

// DefaultPaletteSize is the number of hues in [Default].
const DefaultPaletteSize = 12

// Palette maps names onto a fixed set of colours.
type Palette struct {
	colors    []string
	overrides map[string]string
}

// NewPalette creates a palette of n colours spread around the hue circle at
// constant chroma and luminance. n below 1 is treated as 1.
func NewPalette(n int) *Palette {
	n = max(n, 1)
	colors := make([]string, n)
	for i := range colors {
		h := 360 * float64(i) / float64(n)
		colors[i] = colorful.Hcl(h, 0.55, 0.7).Clamped().Hex()
	}
	return &Palette{colors: colors, overrides: map[string]string{}}
}

// Default returns a palette of DefaultPaletteSize colours.
func Default() *Palette { return NewPalette(DefaultPaletteSize) }

// Override pins name to color. The colour must be a hex string ("#rrggbb"
// or "#rgb").
func (p *Palette) Override(name, color string) error {
	c, err := colorful.Hex(expandShortHex(color))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStyle, err, "invalid colour %q for %q", color, name)
	}
	p.overrides[name] = c.Hex()
	return nil
}

// Colors returns the palette entries in hue order.
func (p *Palette) Colors() []string {
	return append([]string(nil), p.colors...)
}

// Color returns the colour for name.
func (p *Palette) Color(name string) string {
	if c, ok := p.overrides[name]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return p.colors[h.Sum32()%uint32(len(p.colors))]
}

// Func returns p.Color as a ColorFunc.
func (p *Palette) Func() ColorFunc { return p.Color }

// Shade returns color darkened (factor < 0) or lightened (factor > 0) in
// Lab space. Used by the sinks for strokes and the dish of the 3D scene.
// Invalid input is returned unchanged.
func Shade(color string, factor float64) string {
	c, err := colorful.Hex(expandShortHex(color))
	if err != nil {
		return color
	}
	l, a, b := c.Lab()
	l = min(max(l+factor, 0), 1)
	return colorful.Lab(l, a, b).Clamped().Hex()
}

// RGB returns the components of a hex colour in [0, 1].
func RGB(color string) (r, g, b float64, err error) {
	c, err := colorful.Hex(expandShortHex(color))
	if err != nil {
		return 0, 0, 0, errors.Wrap(errors.ErrCodeInvalidStyle, err, "invalid colour %q", color)
	}
	return c.R, c.G, c.B, nil
}

func expandShortHex(s string) string {
	if len(s) == 4 && strings.HasPrefix(s, "#") {
		return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s
}
