package colormath

import "math"

// DefaultGamma is the default gamma exponent applied after color mixing
// and before 8-bit quantization.
const DefaultGamma = 2.2

// Gamma applies a per-channel power curve with exponent gamma.
func Gamma(c RGB, gamma float64) RGB {
	return RGB{
		R: math.Pow(Clamp01(c.R), gamma),
		G: math.Pow(Clamp01(c.G), gamma),
		B: math.Pow(Clamp01(c.B), gamma),
	}
}

// GammaRGBW applies Gamma to the RGB channels and to W independently.
func GammaRGBW(c RGBW, gamma float64) RGBW {
	return RGBW{
		R: math.Pow(Clamp01(c.R), gamma),
		G: math.Pow(Clamp01(c.G), gamma),
		B: math.Pow(Clamp01(c.B), gamma),
		W: math.Pow(Clamp01(c.W), gamma),
	}
}

// ChannelCorrection multiplies RGB by a calibration gain triple. Gains are
// normalized fractions (e.g. a configured 0..255 channel gain divided by
// 255), applied before gamma per spec.md §4.1.
func ChannelCorrection(c RGB, gainR, gainG, gainB float64) RGB {
	return RGB{
		R: Clamp01(c.R * gainR),
		G: Clamp01(c.G * gainG),
		B: Clamp01(c.B * gainB),
	}
}

// Quantize8 converts a normalized channel value in [0,1] to an 8-bit
// integer in [0,255].
func Quantize8(v float64) uint8 {
	v = Clamp01(v)
	return uint8(math.Round(v * 255))
}
