package style

import "github.com/npillmayer/tyse/core/dimen"

// Edges holds lengths for the four sides of a box.
type Edges struct {
	Top, Right, Bottom, Left dimen.DU
}

// EdgeAll creates Edges with the same length on all sides.
func EdgeAll(x dimen.DU) Edges {
	return Edges{Top: x, Right: x, Bottom: x, Left: x}
}

// EdgeSymmetric creates Edges with vertical (top/bottom) and horizontal
// (left/right) lengths.
func EdgeSymmetric(v, h dimen.DU) Edges {
	return Edges{Top: v, Right: h, Bottom: v, Left: h}
}

// Horizontal returns Left + Right.
func (e Edges) Horizontal() dimen.DU {
	return e.Left + e.Right
}

// Vertical returns Top + Bottom.
func (e Edges) Vertical() dimen.DU {
	return e.Top + e.Bottom
}
