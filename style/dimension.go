package style

import (
	"fmt"

	"github.com/npillmayer/tyse/core/dimen"
)

const (
	dimenAuto     uint8 = 0x00
	dimenAbsolute uint8 = 0x01
	dimenPercent  uint8 = 0x02
	kindMask      uint8 = 0x0f
)

// Dimension is an option type for style lengths.
type Dimension struct {
	d     dimen.DU
	pcnt  float64 // 0…100
	flags uint8
}

/*
type Dimension
	= Auto
	| Points dimen
	| Percentage pcnt
*/

// Auto creates a dimension to be computed from content or flex.
// It is the zero value of Dimension.
func Auto() Dimension {
	return Dimension{flags: dimenAuto}
}

// Points creates a dimension with a fixed value of x.
func Points(x dimen.DU) Dimension {
	return Dimension{d: x, flags: dimenAbsolute}
}

// Percent creates a dimension relative to the containing block.
// p is on a 0–100 scale.
func Percent(p float64) Dimension {
	return Dimension{pcnt: p, flags: dimenPercent}
}

// IsAuto is true for auto dimensions.
func (d Dimension) IsAuto() bool {
	return d.flags&kindMask == dimenAuto
}

// Resolve computes the length of d relative to a containing length.
// For auto, fallback is returned.
func (d Dimension) Resolve(containing, fallback dimen.DU) dimen.DU {
	switch d.flags & kindMask {
	case dimenAbsolute:
		return d.d
	case dimenPercent:
		return dimen.DU(float64(containing) * d.pcnt / 100.0)
	}
	return fallback
}

// ResolveIn resolves d against an axis constraint. Percentages need a
// definite constraint; if d cannot be resolved, ok is false.
func (d Dimension) ResolveIn(space Space) (length dimen.DU, ok bool) {
	switch d.flags & kindMask {
	case dimenAbsolute:
		return d.d, true
	case dimenPercent:
		if space.IsDefinite() {
			return d.Resolve(space.Length(), 0), true
		}
	}
	return 0, false
}

func (d Dimension) String() string {
	switch d.flags & kindMask {
	case dimenAbsolute:
		return fmt.Sprint(d.d)
	case dimenPercent:
		return fmt.Sprintf("%.4g%%", d.pcnt)
	}
	return "auto"
}

// ---------------------------------------------------------------------------

// Match starts a pattern match on d.
func (d Dimension) Match() *Matcher {
	return &Matcher{dimen: d}
}

// Matcher matches a Dimension against its variants. Each case method
// returns the Matcher itself if the variant matches, nil otherwise.
type Matcher struct {
	dimen Dimension
}

// IsKind matches dimensions of the same variant as d.
func (m *Matcher) IsKind(d Dimension) *Matcher {
	if m.dimen.flags&kindMask == d.flags&kindMask {
		return m
	}
	return nil
}

// IsAuto matches auto dimensions.
func (m *Matcher) IsAuto() *Matcher {
	if m.dimen.IsAuto() {
		return m
	}
	return nil
}

// Points matches fixed dimensions and extracts the length into du, if du is
// non-nil.
func (m *Matcher) Points(du *dimen.DU) *Matcher {
	if m.dimen.flags&kindMask == dimenAbsolute {
		if du != nil {
			*du = m.dimen.d
		}
		return m
	}
	return nil
}

// Percent matches percentage dimensions and extracts the percentage into p,
// if p is non-nil.
func (m *Matcher) Percent(p *float64) *Matcher {
	if m.dimen.flags&kindMask == dimenPercent {
		if p != nil {
			*p = m.dimen.pcnt
		}
		return m
	}
	return nil
}
