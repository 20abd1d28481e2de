package styles

import (
	"strings"

	"github.com/matzehuels/crosssection/pkg/errors"
)

// Style selects how the 2D sinks lay segments out on the page.
type Style string

const (
	// StyleDisk draws every segment as a full annulus between its radii,
	// the top view of the stacked disks.
	StyleDisk Style = "disk"
	// StyleSunburst draws every segment as a wedge of its angular span on
	// the ring of its depth.
	StyleSunburst Style = "sunburst"
)

// ValidStyles lists the accepted style names.
var ValidStyles = []Style{StyleDisk, StyleSunburst}

// ParseStyle parses a style name. The empty string selects StyleDisk.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleDisk, nil
	}
	for _, v := range ValidStyles {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: disk, sunburst)", s)
}
