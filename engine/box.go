package engine

import (
	"fmt"

	"github.com/npillmayer/tyse/core/dimen"
)

// Box is the computed layout of a node: position, size and paint order.
// Boxes are comparable with ==.
type Box struct {
	X, Y          dimen.DU
	Width, Height dimen.DU
	Order         uint32 // paint order among siblings
}

// Translate returns b shifted by (dx, dy).
func (b Box) Translate(dx, dy dimen.DU) Box {
	b.X += dx
	b.Y += dy
	return b
}

// Right returns the x-coordinate of the right edge.
func (b Box) Right() dimen.DU {
	return b.X + b.Width
}

// Bottom returns the y-coordinate of the bottom edge.
func (b Box) Bottom() dimen.DU {
	return b.Y + b.Height
}

func (b Box) String() string {
	return fmt.Sprintf("[%v,%v %v×%v #%d]", b.X, b.Y, b.Width, b.Height, b.Order)
}
