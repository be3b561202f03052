package colormath

import "math"

// frac returns the fractional part of t, always in [0,1).
func frac(t float64) float64 {
	return t - math.Floor(t)
}

// Pulse is a period-1, range-[0,1] square wave: 1 while frac(t) < duty, else 0.
// pulse(t, duty) = ceil(duty - frac(t)) matches that step exactly for duty
// and frac in [0,1): the ceil is 1 when duty > frac(t), 0 otherwise (and 0
// at the degenerate duty==frac(t) boundary, since ceil(0)=0).
func Pulse(t, duty float64) float64 {
	v := math.Ceil(duty - frac(t))
	return Clamp01(v)
}

// Triangle is a period-1, range-[0,1] symmetric triangle wave, 0 at t=0,
// peaking at t=0.5.
func Triangle(t float64) float64 {
	f := frac(t)
	if f < 0.5 {
		return 2 * f
	}
	return 2 - 2*f
}

// Sine is a period-1, range-[0,1] cosine wave: sine(t) = 1/2 + 1/2*cos(2*pi*t).
func Sine(t float64) float64 {
	return 0.5 + 0.5*math.Cos(2*math.Pi*t)
}

// smootherstep is the quintic ease used by Cubic and by Perlin noise's fade.
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

// Cubic is Triangle with a quintic ease-in/out applied to its ramp, so the
// wave has zero velocity at its peak and trough.
func Cubic(t float64) float64 {
	tri := Triangle(t)
	return smootherstep(tri)
}
