package colormath

import "math"

// PlasmaCoeffs are the four frequency coefficients of the classic
// four-sine plasma primitive.
type PlasmaCoeffs struct {
	Fx1, Fy1 float64
	Fx2, Fy2 float64
}

// Plasma sums four sines of x/y at time t and normalizes the result into
// [0,1].
func Plasma(x, y, t float64, c PlasmaCoeffs) float64 {
	v := math.Sin(x*c.Fx1 + t)
	v += math.Sin(y*c.Fy1 - t)
	v += math.Sin((x+y)*c.Fx2 + t*1.3)
	v += math.Sin(math.Sqrt(x*x+y*y)*c.Fy2 - t*0.7)
	return Clamp01(v/4*0.5 + 0.5)
}

// PlasmaOctaves is the iterated "octave" variant of Plasma, summing
// octaves copies of the base primitive at geometrically increasing
// frequency and decreasing amplitude.
func PlasmaOctaves(x, y, t float64, c PlasmaCoeffs, octaves int, lacunarity, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	var sum, amp, norm, freq float64
	amp = 1
	freq = 1
	for i := 0; i < octaves; i++ {
		sum += Plasma(x*freq, y*freq, t, c) * amp
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return Clamp01(sum / norm)
}
