package style

import "github.com/npillmayer/tyse/core/dimen"

// Direction is the main axis children are laid out along.
type Direction uint8

const (
	Row    Direction = iota // left to right
	Column                  // top to bottom
)

// Justify distributes children along the main axis.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// Align positions children on the cross axis.
type Align uint8

const (
	AlignStretch Align = iota
	AlignStart
	AlignEnd
	AlignCenter
)

// Style contains the layout properties of a node.
//
// The zero value is usable: auto sizes, no constraints, row direction,
// stretched children, no flex growing or shrinking.
type Style struct {
	Width, Height       Dimension
	MinWidth, MinHeight Dimension // auto means no minimum
	MaxWidth, MaxHeight Dimension // auto means no maximum

	Direction      Direction
	JustifyContent Justify
	AlignItems     Align
	Gap            dimen.DU // main axis only

	FlexGrow   float64
	FlexShrink float64
	AlignSelf  *Align // nil: use parent's AlignItems

	Padding Edges
	Margin  Edges
}

// Default returns the style of a node created without explicit style.
func Default() Style {
	return Style{FlexShrink: 1}
}

// Sized returns a default style with fixed width and height.
func Sized(w, h dimen.DU) Style {
	s := Default()
	s.Width = Points(w)
	s.Height = Points(h)
	return s
}
