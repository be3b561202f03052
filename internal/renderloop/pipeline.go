// Package renderloop implements the RenderLoop orchestrator of spec.md
// §4.9: the fixed-rate scheduler binding TimeSync, Group evaluation,
// ArtNet overlay, SmoothingFilter, the global color pipeline, and Sink
// dispatch into one tick.
package renderloop

import (
	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/sink"
)

// GlobalSettings is the subset of configuration the pipeline stage
// consumes each tick (spec.md §4.9 step 4).
type GlobalSettings struct {
	Brightness      float64
	Saturation      float64
	ColorTempK      float64
	GainR, GainG, GainB float64
	UseWhiteChannel bool
	RGBWAlgorithm   colormath.RGBWAlgorithm
	WhiteLEDTempK   float64
	Gamma           float64
	Order           sink.ChannelOrder
	Calibration     bool
}

// applyGlobalSaturation blends c toward channel-average gray by (1-saturation),
// the same desaturation shape group.Eval applies per-group, run again
// here over the whole frame per spec.md §4.9 step 4.
func applyGlobalSaturation(c colormath.RGB, saturation float64) colormath.RGB {
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

func applyGlobalBrightness(c colormath.RGB, brightness float64) colormath.RGB {
	brightness = colormath.Clamp01(brightness)
	return colormath.RGB{R: c.R * brightness, G: c.G * brightness, B: c.B * brightness}
}

// pipelinePixel runs one pixel through global saturation, brightness,
// channel correction, gamma, and (if enabled) RGB->RGBW conversion,
// returning the final quantized bytes in wire channel order.
func pipelinePixel(c colormath.RGB, g GlobalSettings) []byte {
	c = applyGlobalSaturation(c, g.Saturation)
	c = applyGlobalBrightness(c, g.Brightness)
	c = colormath.ChannelCorrection(c, g.GainR, g.GainG, g.GainB)

	if g.UseWhiteChannel {
		rgbw := colormath.ToRGBW(c, g.RGBWAlgorithm, g.UseWhiteChannel, g.ColorTempK, g.WhiteLEDTempK, g.Saturation)
		rgbw = colormath.GammaRGBW(rgbw, g.Gamma)
		r, gr, b, w := colormath.Quantize8(rgbw.R), colormath.Quantize8(rgbw.G), colormath.Quantize8(rgbw.B), colormath.Quantize8(rgbw.W)
		return g.Order.Permute(r, gr, b, w)
	}

	c = colormath.Gamma(c, g.Gamma)
	r, gr, b := colormath.Quantize8(c.R), colormath.Quantize8(c.G), colormath.Quantize8(c.B)
	return g.Order.Permute(r, gr, b, 0)
}

// runPipeline converts a full tick's linear-RGB frame into the wire-ready
// byte stream (spec.md §4.9 step 4), in LED order.
func runPipeline(frame []colormath.RGB, g GlobalSettings) []byte {
	out := make([]byte, 0, len(frame)*g.Order.BytesPerPixel())
	for _, c := range frame {
		out = append(out, pipelinePixel(c, g)...)
	}
	return out
}

// sliceForSink extracts the wire bytes belonging to the given LED
// indices (already in ascending order) out of a full-frame byte stream
// produced by runPipeline.
func sliceForSink(full []byte, indices []int, bytesPerPixel int) []byte {
	out := make([]byte, 0, len(indices)*bytesPerPixel)
	for _, i := range indices {
		off := i * bytesPerPixel
		if off+bytesPerPixel > len(full) {
			continue
		}
		out = append(out, full[off:off+bytesPerPixel]...)
	}
	return out
}
