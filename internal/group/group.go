// Package group implements the per-tick Group evaluation contract of
// spec.md §4.5: a named, contiguous LED range with its own speed,
// scale, saturation, brightness, and pattern/palette/sink bindings.
package group

import (
	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/mapper"
	"github.com/edgeflow/ledcore/internal/palette"
	"github.com/edgeflow/ledcore/internal/pattern"
)

// Config is a Group's frozen-for-the-tick parameter set, snapshotted
// from configuration at the start of each render tick (spec.md §3:
// "group parameters are mutable from configuration but frozen for the
// duration of a single frame tick").
type Config struct {
	Name        string
	RangeStart  int
	RangeEnd    int
	LedCount    int
	Brightness  float64
	Saturation  float64
	Speed       float64
	Scale       float64
	PatternID   string
	PaletteID   string
	SinkBinding string
}

// Len reports the number of LEDs this group covers.
func (c Config) Len() int { return c.RangeEnd - c.RangeStart }

// Group binds a Config to its compiled pattern and palette for one
// evaluation.
type Group struct {
	Config  Config
	Pattern pattern.Fn
	Palette palette.Palette
}

// Eval computes this group's slice of the frame for animTime, writing
// each pixel's linear RGB into out (len(out) must equal Config.Len()).
// prev supplies the previous tick's color per LED in the same range, for
// patterns that reference prev_color; it may be nil on the first tick.
//
// Eval is a pure function of its arguments: no I/O, no blocking, safe to
// invoke concurrently with other groups' Eval calls against disjoint
// output slices.
func (g Group) Eval(animTime float64, out []colormath.RGB, prev []colormath.RGB) {
	n := g.Config.Len()
	if len(out) != n {
		panic("group: out slice length mismatch")
	}
	groupTime := animTime * g.Config.Speed
	// The mapper is built from the strip's full led_count, not this
	// group's width, so x reflects true physical position (spec.md §4.2):
	// a group spanning only part of the strip must not have its range
	// renormalized to [0,1] as if it were the whole strip.
	m := mapper.NewLinearMapper(g.Config.LedCount)

	for i := 0; i < n; i++ {
		var prevColor colormath.RGB
		if prev != nil && i < len(prev) {
			prevColor = prev[i]
		}
		xNorm := m.X(g.Config.RangeStart+i) * g.Config.Scale

		in := pattern.Input{
			T:         groupTime,
			X:         xNorm,
			PrevColor: prevColor,
			Palette:   g.Palette,
		}
		result := g.Pattern(in)

		var c colormath.RGB
		if result.IsPalettePosition {
			c = g.Palette.Sample(result.PalettePosition)
		} else {
			c = result.Color
		}

		c = applySaturation(c, g.Config.Saturation)
		c = scaleBrightness(c, g.Config.Brightness)
		out[i] = c
	}
}

// applySaturation blends c toward its channel-average gray by factor
// (1-saturation), leaving saturation=1 a no-op and saturation=0 fully
// desaturated.
func applySaturation(c colormath.RGB, saturation float64) colormath.RGB {
	saturation = colormath.Clamp01(saturation)
	if saturation >= 1 {
		return c
	}
	gray := (c.R + c.G + c.B) / 3
	return colormath.RGB{
		R: gray + (c.R-gray)*saturation,
		G: gray + (c.G-gray)*saturation,
		B: gray + (c.B-gray)*saturation,
	}
}

func scaleBrightness(c colormath.RGB, brightness float64) colormath.RGB {
	brightness = colormath.Clamp01(brightness)
	return colormath.RGB{R: c.R * brightness, G: c.G * brightness, B: c.B * brightness}
}
