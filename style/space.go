package style

import (
	"fmt"

	"github.com/npillmayer/tyse/core/dimen"
)

type spaceKind uint8

const (
	spaceDefinite spaceKind = iota
	spaceMinContent
	spaceMaxContent
)

// Space is the sizing constraint for one axis of a measurement.
type Space struct {
	length dimen.DU
	kind   spaceKind
}

// Definite constrains an axis to length x.
func Definite(x dimen.DU) Space {
	return Space{length: x, kind: spaceDefinite}
}

// MinContent lets an axis shrink to the minimum size of its content.
func MinContent() Space {
	return Space{kind: spaceMinContent}
}

// MaxContent lets an axis grow to the maximum size of its content
// (unconstrained).
func MaxContent() Space {
	return Space{kind: spaceMaxContent}
}

// IsDefinite is true for definite constraints.
func (s Space) IsDefinite() bool {
	return s.kind == spaceDefinite
}

// Length is the definite length, or 0 for content constraints.
func (s Space) Length() dimen.DU {
	if s.kind != spaceDefinite {
		return 0
	}
	return s.length
}

// Shrink reduces a definite constraint by x, never below zero.
// Content constraints are returned unchanged.
func (s Space) Shrink(x dimen.DU) Space {
	if s.kind != spaceDefinite {
		return s
	}
	l := s.length - x
	if l < 0 {
		l = 0
	}
	return Definite(l)
}

func (s Space) String() string {
	switch s.kind {
	case spaceMinContent:
		return "min-content"
	case spaceMaxContent:
		return "max-content"
	}
	return fmt.Sprint(s.length)
}

// AvailableSpace holds the constraints of a measurement for both axes.
type AvailableSpace struct {
	Width, Height Space
}

// Unconstrained is max-content on both axes.
func Unconstrained() AvailableSpace {
	return AvailableSpace{Width: MaxContent(), Height: MaxContent()}
}

// Fixed is a definite constraint on both axes.
func Fixed(w, h dimen.DU) AvailableSpace {
	return AvailableSpace{Width: Definite(w), Height: Definite(h)}
}

func (a AvailableSpace) String() string {
	return fmt.Sprintf("(%s × %s)", a.Width, a.Height)
}
