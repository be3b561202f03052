package colormath

import "math"

// RGBWAlgorithm selects the white-extraction strategy for ToRGBW.
type RGBWAlgorithm string

const (
	AlgorithmLegacy   RGBWAlgorithm = "legacy"
	AlgorithmAdvanced RGBWAlgorithm = "advanced"
)

// LegacyRGBW implements the desaturation extraction: w is the shared
// minimum channel (scaled by k, which is 1 when the white channel is
// enabled and 0 otherwise), subtracted out of each RGB channel.
func LegacyRGBW(c RGB, useWhiteChannel bool) RGBW {
	k := 0.0
	if useWhiteChannel {
		k = 1.0
	}
	w := math.Min(c.R, math.Min(c.G, c.B)) * k
	return RGBW{
		R: Clamp01(c.R - w),
		G: Clamp01(c.G - w),
		B: Clamp01(c.B - w),
		W: Clamp01(w),
	}
}

// AdvancedRGBW implements the temperature-aware white extraction of
// spec.md §4.1. targetTemp is the global color temperature; whiteTemp is
// the white LED's own spectral temperature; sat is the global saturation
// factor in [0,1] used to split the input into a chroma component and a
// neutral (white-extractable) component.
func AdvancedRGBW(c RGB, targetTempK, whiteTempK, sat float64) RGBW {
	m := math.Max(c.R, math.Max(c.G, c.B))
	if m <= 0 {
		return RGBW{}
	}

	satFactor := Clamp01(sat)
	minV := math.Min(c.R, math.Min(c.G, c.B))
	chromaMag := m - minV

	chroma := RGB{
		R: (c.R - minV) * satFactor,
		G: (c.G - minV) * satFactor,
		B: (c.B - minV) * satFactor,
	}
	neutral := minV + (1-satFactor)*chromaMag

	target := Blackbody(targetTempK)
	white := Blackbody(whiteTempK)

	desired := RGB{
		R: chroma.R + neutral*target.R,
		G: chroma.G + neutral*target.G,
		B: chroma.B + neutral*target.B,
	}

	w := math.Inf(1)
	channels := [3][2]float64{{desired.R, white.R}, {desired.G, white.G}, {desired.B, white.B}}
	for _, ch := range channels {
		d, wc := ch[0], ch[1]
		if wc <= 0 {
			continue
		}
		ratio := d / wc
		if ratio < w {
			w = ratio
		}
	}
	if math.IsInf(w, 1) {
		w = 0
	}
	w = math.Max(0, math.Min(w, neutral))

	residual := RGB{
		R: math.Max(0, desired.R-w*white.R),
		G: math.Max(0, desired.G-w*white.G),
		B: math.Max(0, desired.B-w*white.B),
	}

	return RGBW{
		R: Clamp01(residual.R),
		G: Clamp01(residual.G),
		B: Clamp01(residual.B),
		W: Clamp01(w),
	}
}

// ToRGBW dispatches to the configured algorithm.
func ToRGBW(c RGB, alg RGBWAlgorithm, useWhiteChannel bool, targetTempK, whiteTempK, sat float64) RGBW {
	if alg == AlgorithmAdvanced {
		return AdvancedRGBW(c, targetTempK, whiteTempK, sat)
	}
	return LegacyRGBW(c, useWhiteChannel)
}
