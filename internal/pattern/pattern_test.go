package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/palette"
)

func testPalette() palette.Palette {
	return palette.NewImmutable(
		colormath.HSV{H: 0, S: 1, V: 1},
		colormath.HSV{H: 0.5, S: 1, V: 1},
	)
}

func TestCompileConstantColor(t *testing.T) {
	res := Compile("rgb(1, 0, 0)")
	require.True(t, res.OK())
	out := res.Fn(Input{Palette: testPalette()})
	assert.False(t, out.IsPalettePosition)
	assert.InDelta(t, 1, out.Color.R, 1e-9)
	assert.InDelta(t, 0, out.Color.G, 1e-9)
}

func TestCompileArithmetic(t *testing.T) {
	res := Compile("1 + 2 * 3 - (4 / 2)")
	require.True(t, res.OK())
	out := res.Fn(Input{Palette: testPalette()})
	// non-color scalar result broadcasts across all three channels
	assert.InDelta(t, 5, out.Color.R, 1e-9)
}

func TestCompileUsesTimeAndPosition(t *testing.T) {
	res := Compile("sine(t + x)")
	require.True(t, res.OK())
	a := res.Fn(Input{T: 0, X: 0, Palette: testPalette()})
	b := res.Fn(Input{T: 0.25, X: 0, Palette: testPalette()})
	assert.NotEqual(t, a.Color.R, b.Color.R)
}

func TestCompilePaletteMarker(t *testing.T) {
	res := Compile("palette(x + t)")
	require.True(t, res.OK())
	out := res.Fn(Input{T: 0.1, X: 0.2, Palette: testPalette()})
	assert.True(t, out.IsPalettePosition)
	assert.InDelta(t, 0.3, out.PalettePosition, 1e-9)
}

func TestCompilePaletteWraps(t *testing.T) {
	res := Compile("palette(t)")
	require.True(t, res.OK())
	out := res.Fn(Input{T: 1.25, Palette: testPalette()})
	assert.InDelta(t, 0.25, out.PalettePosition, 1e-9)
}

func TestCompileUnknownFunctionFails(t *testing.T) {
	res := Compile("bogus(t)")
	assert.False(t, res.OK())
	assert.NotEmpty(t, res.Errors)
}

func TestCompileSyntaxErrorFails(t *testing.T) {
	res := Compile("1 + * 2")
	assert.False(t, res.OK())
}

func TestCompileTrailingInputFails(t *testing.T) {
	res := Compile("1 + 1 2")
	assert.False(t, res.OK())
}

func TestCompileDivideByZeroIsSafe(t *testing.T) {
	res := Compile("1 / (x - x)")
	require.True(t, res.OK())
	assert.NotPanics(t, func() {
		res.Fn(Input{X: 5, Palette: testPalette()})
	})
}

func TestCompileMixAndClamp(t *testing.T) {
	res := Compile("clamp(mix(0, 1, 0.25))")
	require.True(t, res.OK())
	out := res.Fn(Input{Palette: testPalette()})
	assert.InDelta(t, 0.25, out.Color.R, 1e-9)
}

func TestCompilePrevColorReference(t *testing.T) {
	res := Compile("prev_r * 0.5")
	require.True(t, res.OK())
	out := res.Fn(Input{PrevColor: colormath.RGB{R: 0.8}, Palette: testPalette()})
	assert.InDelta(t, 0.4, out.Color.R, 1e-9)
}

func TestRegistrySetAndLookup(t *testing.T) {
	reg := NewRegistry()
	res := reg.Set("solid-red", "rgb(1,0,0)")
	require.True(t, res.OK())

	fn, ok := reg.Lookup("solid-red")
	require.True(t, ok)
	out := fn(Input{Palette: testPalette()})
	assert.InDelta(t, 1, out.Color.R, 1e-9)
	assert.Equal(t, []string{"solid-red"}, reg.IDs())
}

func TestRegistryKeepsPreviousOnBadEdit(t *testing.T) {
	reg := NewRegistry()
	reg.Set("p", "rgb(1,0,0)")

	res := reg.Set("p", "rgb(1,0") // malformed
	assert.False(t, res.OK())
	assert.NotEmpty(t, reg.Errors("p"))

	fn, ok := reg.Lookup("p")
	require.True(t, ok)
	out := fn(Input{Palette: testPalette()})
	assert.InDelta(t, 1, out.Color.R, 1e-9, "a failed recompile must not evict the working pattern")
}

func TestCompileNoiseEvaluatesWithoutPanic(t *testing.T) {
	// A compiled noise() call evaluates at x=1, t=1 without panicking.
	res := Compile("noise(x, t, 0)")
	require.True(t, res.OK())
	assert.NotPanics(t, func() {
		res.Fn(Input{X: 1, T: 1, Palette: testPalette()})
	})
}
