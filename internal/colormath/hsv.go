// Package colormath implements the stateless colorspace conversions,
// waveform/noise primitives, and the RGB/RGBW pipeline shared by every
// pattern and by the render loop's global pipeline stage.
package colormath

import "math"

// RGB is a normalized color triple, each channel in [0,1].
type RGB struct {
	R, G, B float64
}

// RGBW is a normalized four-channel color, each channel in [0,1].
type RGBW struct {
	R, G, B, W float64
}

// HSV is hue/saturation/value, each in [0,1]; hue wraps.
type HSV struct {
	H, S, V float64
}

// Clamp01 clamps x to [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// wrap01 reduces x modulo 1 into [0,1).
func wrap01(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x += 1
	}
	return x
}

// HSVToRGB converts HSV (hue wrapped to [0,1)) to normalized RGB.
func HSVToRGB(c HSV) RGB {
	h := wrap01(c.H) * 6
	s := Clamp01(c.S)
	v := Clamp01(c.V)

	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return RGB{v, t, p}
	case 1:
		return RGB{q, v, p}
	case 2:
		return RGB{p, v, t}
	case 3:
		return RGB{p, q, v}
	case 4:
		return RGB{t, p, v}
	default:
		return RGB{v, p, q}
	}
}

// RGBToHSV converts normalized RGB to HSV.
func RGBToHSV(c RGB) HSV {
	r, g, b := c.R, c.G, c.B
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v := max
	var s float64
	if max > 0 {
		s = delta / max
	}

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == r:
		h = math.Mod((g-b)/delta, 6)
	case max == g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h /= 6
	if h < 0 {
		h += 1
	}

	return HSV{H: h, S: s, V: v}
}

// lerpHue interpolates hue a->b by the shortest arc on the [0,1) circle.
func lerpHue(a, b, f float64) float64 {
	a, b = wrap01(a), wrap01(b)
	d := b - a
	if d > 0.5 {
		d -= 1
	} else if d < -0.5 {
		d += 1
	}
	return wrap01(a + d*f)
}

// LerpHSV interpolates two HSV colors by f in [0,1], using shortest-arc hue.
func LerpHSV(a, b HSV, f float64) HSV {
	return HSV{
		H: lerpHue(a.H, b.H, f),
		S: a.S + (b.S-a.S)*f,
		V: a.V + (b.V-a.V)*f,
	}
}
