package pattern

import "github.com/edgeflow/ledcore/internal/colormath"

type valueKind int

const (
	kindScalar valueKind = iota
	kindColor
	kindPalettePos
)

// value is the tagged union every expression node produces: a plain
// scalar, a direct RGB color (from rgb()/hsv()), or a palette position
// (from palette()) that the renderer resolves against the group's bound
// palette.
type value struct {
	kind  valueKind
	num   float64
	color colormath.RGB
}

func scalar(v float64) value { return value{kind: kindScalar, num: v} }

func colorValue(c colormath.RGB) value { return value{kind: kindColor, color: c} }

func palettePos(p float64) value { return value{kind: kindPalettePos, num: p} }

// asScalar coerces any value to a scalar for arithmetic: a color
// coerces to its luma-ish average so arithmetic on pattern output never
// panics on a type mismatch; a palette position coerces to itself.
func (v value) asScalar() float64 {
	switch v.kind {
	case kindScalar, kindPalettePos:
		return v.num
	case kindColor:
		return (v.color.R + v.color.G + v.color.B) / 3
	default:
		return 0
	}
}

// toOutput converts the top-level expression result into the Output the
// renderer consumes.
func (v value) toOutput() Output {
	switch v.kind {
	case kindPalettePos:
		return Output{IsPalettePosition: true, PalettePosition: v.num}
	case kindColor:
		return Output{Color: v.color}
	default:
		return Output{Color: colormath.RGB{R: v.num, G: v.num, B: v.num}}
	}
}

// evalEnv is the per-invocation environment a compiled pattern evaluates
// against: the renderer-supplied (t, x, prev_color) triple and the
// group's bound palette, for patterns that sample it directly via the
// palette_sample() builtin.
type evalEnv struct {
	in Input
}

func (e *evalEnv) lookup(name string) value {
	switch name {
	case "t":
		return scalar(e.in.T)
	case "x":
		return scalar(e.in.X)
	case "prev_r":
		return scalar(e.in.PrevColor.R)
	case "prev_g":
		return scalar(e.in.PrevColor.G)
	case "prev_b":
		return scalar(e.in.PrevColor.B)
	case "pi":
		return scalar(3.141592653589793)
	default:
		return scalar(0)
	}
}
