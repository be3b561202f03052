package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/palette"
	"github.com/edgeflow/ledcore/internal/pattern"
)

func mustCompile(t *testing.T, src string) pattern.Fn {
	t.Helper()
	res := pattern.Compile(src)
	require.True(t, res.OK(), res.Errors)
	return res.Fn
}

func TestGroupEvalWritesFullRange(t *testing.T) {
	g := Group{
		Config: Config{RangeStart: 10, RangeEnd: 14, Brightness: 1, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: mustCompile(t, "rgb(1, 0, 0)"),
		Palette: palette.NewImmutable(colormath.HSV{S: 1, V: 1}),
	}
	out := make([]colormath.RGB, g.Config.Len())
	g.Eval(0, out, nil)
	for _, px := range out {
		assert.InDelta(t, 1, px.R, 1e-9)
		assert.InDelta(t, 0, px.G, 1e-9)
	}
}

func TestGroupEvalAppliesBrightness(t *testing.T) {
	g := Group{
		Config: Config{RangeStart: 0, RangeEnd: 3, Brightness: 0.5, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: mustCompile(t, "rgb(1, 1, 1)"),
		Palette: palette.NewImmutable(colormath.HSV{S: 1, V: 1}),
	}
	out := make([]colormath.RGB, g.Config.Len())
	g.Eval(0, out, nil)
	for _, px := range out {
		assert.InDelta(t, 0.5, px.R, 1e-9)
	}
}

func TestGroupEvalAppliesSaturation(t *testing.T) {
	g := Group{
		Config: Config{RangeStart: 0, RangeEnd: 1, Brightness: 1, Saturation: 0, Speed: 1, Scale: 1},
		Pattern: mustCompile(t, "rgb(1, 0, 0)"),
		Palette: palette.NewImmutable(colormath.HSV{S: 1, V: 1}),
	}
	out := make([]colormath.RGB, 1)
	g.Eval(0, out, nil)
	// fully desaturated: all channels collapse to the source's gray average (1/3)
	assert.InDelta(t, out[0].R, out[0].G, 1e-9)
	assert.InDelta(t, out[0].G, out[0].B, 1e-9)
}

func TestGroupEvalPalettePosition(t *testing.T) {
	pal := palette.NewImmutable(
		colormath.HSV{H: 0, S: 1, V: 1},
		colormath.HSV{H: 0.5, S: 1, V: 1},
	)
	g := Group{
		Config:  Config{RangeStart: 0, RangeEnd: 1, Brightness: 1, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: mustCompile(t, "palette(0)"),
		Palette: pal,
	}
	out := make([]colormath.RGB, 1)
	g.Eval(0, out, nil)
	expected := pal.Sample(0)
	assert.InDelta(t, expected.R, out[0].R, 1e-9)
}

func TestGroupEvalUsesPrevColor(t *testing.T) {
	g := Group{
		Config:  Config{RangeStart: 0, RangeEnd: 2, Brightness: 1, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: mustCompile(t, "prev_r"),
		Palette: palette.NewImmutable(colormath.HSV{S: 1, V: 1}),
	}
	prev := []colormath.RGB{{R: 0.2}, {R: 0.9}}
	out := make([]colormath.RGB, 2)
	g.Eval(0, out, prev)
	assert.InDelta(t, 0.2, out[0].R, 1e-9)
	assert.InDelta(t, 0.9, out[1].R, 1e-9)
}

func TestGroupEvalPanicsOnLengthMismatch(t *testing.T) {
	g := Group{
		Config:  Config{RangeStart: 0, RangeEnd: 4, Brightness: 1, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: mustCompile(t, "rgb(0,0,0)"),
		Palette: palette.NewImmutable(colormath.HSV{S: 1, V: 1}),
	}
	out := make([]colormath.RGB, 2)
	assert.Panics(t, func() { g.Eval(0, out, nil) })
}

func TestGroupConfigLen(t *testing.T) {
	c := Config{RangeStart: 5, RangeEnd: 9}
	assert.Equal(t, 4, c.Len())
}

func TestGroupEvalMapsXAgainstFullStripNotGroupWidth(t *testing.T) {
	// A 10-LED strip split into two 5-wide groups: each pixel's x must
	// reflect its absolute position on the strip, not a renormalized
	// [0,1] within its own group.
	const ledCount = 10
	fn := mustCompile(t, "rgb(x, 0, 0)")
	pal := palette.NewImmutable(colormath.HSV{S: 1, V: 1})

	first := Group{
		Config:  Config{RangeStart: 0, RangeEnd: 5, LedCount: ledCount, Brightness: 1, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: fn,
		Palette: pal,
	}
	second := Group{
		Config:  Config{RangeStart: 5, RangeEnd: 10, LedCount: ledCount, Brightness: 1, Saturation: 1, Speed: 1, Scale: 1},
		Pattern: fn,
		Palette: pal,
	}

	firstOut := make([]colormath.RGB, first.Config.Len())
	first.Eval(0, firstOut, nil)
	secondOut := make([]colormath.RGB, second.Config.Len())
	second.Eval(0, secondOut, nil)

	// Absolute index 0 -> x=0, absolute index 9 -> x=1 (Count-1 == 9).
	assert.InDelta(t, 0.0, firstOut[0].R, 1e-9)
	assert.InDelta(t, 4.0/9.0, firstOut[4].R, 1e-9)
	assert.InDelta(t, 5.0/9.0, secondOut[0].R, 1e-9)
	assert.InDelta(t, 1.0, secondOut[4].R, 1e-9)

	// Without the fix both groups would independently renormalize to
	// [0,1] across their own 5-pixel width, making firstOut[4] == secondOut[4].
	assert.NotEqual(t, firstOut[4].R, secondOut[4].R)
}
