// Package palette implements ordered HSV color-stop lists sampled by
// continuous position, per spec.md §4.3.
package palette

import (
	"errors"
	"math"

	"github.com/edgeflow/ledcore/internal/colormath"
)

// ErrTooFewStops is returned by NewEditable when fewer than two stops are
// supplied; default (immutable) palettes are exempt from this minimum.
var ErrTooFewStops = errors.New("palette: editable palettes require at least 2 stops")

// Palette is an ordered, non-empty list of HSV stops sampled by position
// in [0,1) with wraparound from the last stop back to the first.
type Palette struct {
	Stops    []colormath.HSV
	editable bool
}

// NewImmutable builds a default, non-editable palette. Any non-empty
// stop list is accepted.
func NewImmutable(stops ...colormath.HSV) Palette {
	return Palette{Stops: append([]colormath.HSV(nil), stops...), editable: false}
}

// NewEditable builds a user-editable palette, enforcing the >=2 stop
// invariant from spec.md §3.
func NewEditable(stops ...colormath.HSV) (Palette, error) {
	if len(stops) < 2 {
		return Palette{}, ErrTooFewStops
	}
	return Palette{Stops: append([]colormath.HSV(nil), stops...), editable: true}, nil
}

func wrap01(p float64) float64 {
	p = math.Mod(p, 1)
	if p < 0 {
		p += 1
	}
	return p
}

// Sample returns the color at continuous position p, reduced modulo 1
// into [0,1). With N stops, segment index s = floor(p*N), fractional
// f = p*N - s, interpolated between stop s and stop (s+1) mod N in HSV
// with shortest-arc hue blending.
func (pl Palette) Sample(p float64) colormath.RGB {
	n := len(pl.Stops)
	if n == 0 {
		return colormath.RGB{}
	}
	if n == 1 {
		return colormath.HSVToRGB(pl.Stops[0])
	}

	p = wrap01(p)
	scaled := p * float64(n)
	s := int(math.Floor(scaled))
	f := scaled - float64(s)
	if s >= n {
		s = n - 1
	}
	next := (s + 1) % n

	blended := colormath.LerpHSV(pl.Stops[s], pl.Stops[next], f)
	return colormath.HSVToRGB(blended)
}

// Len returns the number of stops.
func (pl Palette) Len() int { return len(pl.Stops) }
