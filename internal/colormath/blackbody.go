package colormath

import "math"

// Blackbody converts a color temperature in Kelvin to normalized RGB using
// the Tanner-Helland piecewise log/power approximation, then rescales so
// the peak channel is exactly 1.0. A zero or negative input returns pure
// white, since "undefined" color temperature should not bias a pipeline
// that multiplies by this value.
func Blackbody(kelvin float64) RGB {
	if kelvin <= 0 {
		return RGB{1, 1, 1}
	}

	temp := kelvin / 100

	var r, g, b float64

	if temp <= 66 {
		r = 255
	} else {
		r = 329.698727446 * math.Pow(temp-60, -0.1332047592)
	}

	if temp <= 66 {
		g = 99.4708025861*math.Log(temp) - 161.1195681661
	} else {
		g = 288.1221695283 * math.Pow(temp-60, -0.0755148492)
	}

	switch {
	case temp >= 66:
		b = 255
	case temp <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(temp-10) - 305.0447927307
	}

	rgb := RGB{
		R: Clamp01(r / 255),
		G: Clamp01(g / 255),
		B: Clamp01(b / 255),
	}

	peak := math.Max(rgb.R, math.Max(rgb.G, rgb.B))
	if peak <= 0 {
		return RGB{1, 1, 1}
	}
	return RGB{rgb.R / peak, rgb.G / peak, rgb.B / peak}
}
