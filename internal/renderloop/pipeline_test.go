package renderloop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/sink"
)

func TestPipelinePixelAppliesBrightnessAndOrder(t *testing.T) {
	g := GlobalSettings{
		Brightness: 0.5,
		Saturation: 1,
		GainR:      1, GainG: 1, GainB: 1,
		Gamma: 1,
		Order: sink.OrderGRB,
	}
	out := pipelinePixel(colormath.RGB{R: 1, G: 0, B: 0}, g)
	assert.Len(t, out, 3)
	// GRB order: green first, then red, then blue.
	assert.Equal(t, byte(0), out[0])
	assert.InDelta(t, 127, int(out[1]), 1)
	assert.Equal(t, byte(0), out[2])
}

func TestPipelinePixelDesaturatesFully(t *testing.T) {
	g := GlobalSettings{
		Brightness: 1, Saturation: 0,
		GainR: 1, GainG: 1, GainB: 1,
		Gamma: 1,
		Order: sink.OrderRGB,
	}
	out := pipelinePixel(colormath.RGB{R: 1, G: 0, B: 0}, g)
	assert.Equal(t, out[0], out[1])
	assert.Equal(t, out[1], out[2])
}

func TestPipelinePixelEmitsFourBytesWhenWhiteChannelEnabled(t *testing.T) {
	g := GlobalSettings{
		Brightness: 1, Saturation: 1,
		GainR: 1, GainG: 1, GainB: 1,
		Gamma: 1,
		UseWhiteChannel: true,
		RGBWAlgorithm:   colormath.AlgorithmLegacy,
		Order:           sink.OrderRGBW,
	}
	out := pipelinePixel(colormath.RGB{R: 1, G: 1, B: 1}, g)
	assert.Len(t, out, 4)
	assert.Equal(t, byte(255), out[3])
}

func TestRunPipelineProducesOneEntryPerLED(t *testing.T) {
	g := GlobalSettings{Brightness: 1, Saturation: 1, GainR: 1, GainG: 1, GainB: 1, Gamma: 1, Order: sink.OrderRGB}
	frame := []colormath.RGB{{R: 1}, {G: 1}, {B: 1}}
	out := runPipeline(frame, g)
	assert.Len(t, out, 9)
}

func TestSliceForSinkExtractsOnlyRequestedIndices(t *testing.T) {
	full := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9} // three RGB pixels
	got := sliceForSink(full, []int{0, 2}, 3)
	assert.Equal(t, []byte{1, 2, 3, 7, 8, 9}, got)
}

func TestSliceForSinkIgnoresOutOfRangeIndex(t *testing.T) {
	full := []byte{1, 2, 3}
	got := sliceForSink(full, []int{0, 5}, 3)
	assert.Equal(t, []byte{1, 2, 3}, got)
}
