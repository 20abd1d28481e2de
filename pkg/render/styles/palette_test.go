package styles

import (
	"strings"
	"testing"
)

func TestPaletteDeterministic(t *testing.T) {
	p := Default()
	for _, name := range []string{"a", "b", "eu", ""} {
		if p.Color(name) != p.Color(name) {
			t.Errorf("Color(%q) not stable", name)
		}
		if p.Color(name) != Default().Color(name) {
			t.Errorf("Color(%q) differs between palettes", name)
		}
	}
}

func TestPaletteColors(t *testing.T) {
	p := NewPalette(6)
	colors := p.Colors()
	if len(colors) != 6 {
		t.Fatalf("len(Colors()) = %d, want 6", len(colors))
	}
	seen := map[string]bool{}
	for _, c := range colors {
		if !strings.HasPrefix(c, "#") || len(c) != 7 {
			t.Errorf("color %q is not #rrggbb", c)
		}
		seen[c] = true
	}
	if len(seen) != 6 {
		t.Errorf("palette has %d distinct colours, want 6", len(seen))
	}

	if got := len(NewPalette(0).Colors()); got != 1 {
		t.Errorf("NewPalette(0) size = %d, want 1", got)
	}
}

func TestPaletteOverride(t *testing.T) {
	p := Default()
	if err := p.Override("a", "#f00"); err != nil {
		t.Fatalf("Override() error: %v", err)
	}
	if got := p.Color("a"); got != "#ff0000" {
		t.Errorf("Color(a) = %q, want #ff0000", got)
	}
	if err := p.Override("b", "red"); err == nil {
		t.Error("Override() should reject non-hex colours")
	}
}

func TestRGB(t *testing.T) {
	r, g, b, err := RGB("#ff0000")
	if err != nil {
		t.Fatalf("RGB() error: %v", err)
	}
	if r != 1 || g != 0 || b != 0 {
		t.Errorf("RGB(#ff0000) = (%v, %v, %v), want (1, 0, 0)", r, g, b)
	}
	if _, _, _, err := RGB("nope"); err == nil {
		t.Error("RGB() should reject invalid input")
	}
}

func TestShade(t *testing.T) {
	if got := Shade("nope", 0.1); got != "nope" {
		t.Errorf("Shade(invalid) = %q, want input unchanged", got)
	}
	if got := Shade("#336699", 0); got != "#336699" {
		t.Errorf("Shade(c, 0) = %q, want #336699", got)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		input   string
		want    Style
		wantErr bool
	}{
		{"", StyleDisk, false},
		{"disk", StyleDisk, false},
		{"Sunburst", StyleSunburst, false},
		{"radar", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStyle(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
