// Package validate gates a render before any layout work happens.
//
// Two conditions stop a cross-section render:
//
//   - every chart's slice collection is empty ([Charts] → *errors.AllZerosError)
//   - the render surface is at or below [MinContainerSize] on either side
//     ([Container] → *errors.ContainerTooSmallError)
//
// Both checks are pure predicates. Callers run them before touching the
// previous scene so a failed render leaves the last good frame visible.
package validate

import (
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

// MinContainerSize is the exclusive lower bound, in pixel units, for both
// the width and the height of a render surface.
const MinContainerSize = 20.0

// Charts returns an *errors.AllZerosError when no chart has a slice to draw.
// Only the presence of children matters: a chart whose children all have
// size zero still passes.
func Charts(charts []hierarchy.Chart) error {
	for _, c := range charts {
		if c.HasSlices() {
			return nil
		}
	}
	return &errors.AllZerosError{Charts: len(charts)}
}

// Container returns an *errors.ContainerTooSmallError when width or height
// is at or below MinContainerSize.
func Container(width, height float64) error {
	if width <= MinContainerSize || height <= MinContainerSize {
		return &errors.ContainerTooSmallError{Width: width, Height: height, Min: MinContainerSize}
	}
	return nil
}
