package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeflow/ledcore/internal/colormath"
)

func TestTemporalNoneIsPassthrough(t *testing.T) {
	tf := NewTemporal(TemporalNone, 4, 2)
	in := []colormath.RGBW{{R: 1}, {G: 1}}
	out := make([]colormath.RGBW, 2)
	tf.Apply(in, out)
	assert.Equal(t, in, out)
}

func TestTemporalAverageConvergesToConstant(t *testing.T) {
	tf := NewTemporal(TemporalAverage, 3, 1)
	in := []colormath.RGBW{{R: 1}}
	out := make([]colormath.RGBW, 1)
	for i := 0; i < 10; i++ {
		tf.Apply(in, out)
	}
	assert.InDelta(t, 1, out[0].R, 1e-9)
}

func TestTemporalAverageSmoothsSpike(t *testing.T) {
	tf := NewTemporal(TemporalAverage, 4, 1)
	out := make([]colormath.RGBW, 1)
	tf.Apply([]colormath.RGBW{{R: 0}}, out)
	tf.Apply([]colormath.RGBW{{R: 0}}, out)
	tf.Apply([]colormath.RGBW{{R: 0}}, out)
	tf.Apply([]colormath.RGBW{{R: 1}}, out)
	assert.InDelta(t, 0.25, out[0].R, 1e-9)
}

func TestTemporalLerpPassthroughBeforeWindowFills(t *testing.T) {
	tf := NewTemporal(TemporalLerp, 4, 1)
	out := make([]colormath.RGBW, 1)
	tf.Apply([]colormath.RGBW{{R: 0.7}}, out)
	assert.InDelta(t, 0.7, out[0].R, 1e-9)
}

func TestTemporalLerpBlendsOldestAndCurrent(t *testing.T) {
	tf := NewTemporal(TemporalLerp, 2, 1)
	out := make([]colormath.RGBW, 1)
	tf.Apply([]colormath.RGBW{{R: 0}}, out)
	tf.Apply([]colormath.RGBW{{R: 0}}, out)
	tf.Apply([]colormath.RGBW{{R: 1}}, out)
	// window=2, alpha=0.5: oldest*0.5 + current*0.5
	assert.InDelta(t, 0.5, out[0].R, 1e-9)
}

func TestSpatialNoneIsPassthrough(t *testing.T) {
	s := NewSpatial(SpatialNone, 3, 4)
	in := []colormath.RGBW{{R: 1}, {R: 2}, {R: 3}, {R: 4}}
	out := make([]colormath.RGBW, 4)
	s.Apply(in, out)
	assert.Equal(t, in, out)
}

func TestSpatialAverageUniformInputUnchanged(t *testing.T) {
	s := NewSpatial(SpatialAverage, 3, 5)
	in := make([]colormath.RGBW, 5)
	for i := range in {
		in[i] = colormath.RGBW{R: 0.5}
	}
	out := make([]colormath.RGBW, 5)
	s.Apply(in, out)
	for _, px := range out {
		assert.InDelta(t, 0.5, px.R, 1e-9)
	}
}

func TestSpatialAverageBlendsNeighbors(t *testing.T) {
	s := NewSpatial(SpatialAverage, 3, 3)
	in := []colormath.RGBW{{R: 0}, {R: 1}, {R: 0}}
	out := make([]colormath.RGBW, 3)
	s.Apply(in, out)
	assert.InDelta(t, 1.0/3.0, out[1].R, 1e-9)
}

func TestSpatialClampsAtEdgeAndRenormalizes(t *testing.T) {
	s := NewSpatial(SpatialAverage, 3, 2)
	in := []colormath.RGBW{{R: 1}, {R: 0}}
	out := make([]colormath.RGBW, 2)
	s.Apply(in, out)
	// index 0 only has itself and index 1 in range (no index -1):
	// renormalized average over {1, 0} = 0.5
	assert.InDelta(t, 0.5, out[0].R, 1e-9)
}

func TestSpatialEvenWidthForcedOdd(t *testing.T) {
	s := NewSpatial(SpatialAverage, 4, 5)
	assert.Equal(t, 5, len(s.weights))
}

func TestSpatialGaussianPeaksAtCenter(t *testing.T) {
	weights := kernelWeights(SpatialGaussian, 5)
	center := weights[2]
	for i, w := range weights {
		if i != 2 {
			assert.Less(t, w, center)
		}
	}
}

func TestSpatialTriangleWeightsDecreaseFromCenter(t *testing.T) {
	weights := kernelWeights(SpatialTriangle, 5)
	assert.Greater(t, weights[2], weights[1])
	assert.Greater(t, weights[1], weights[0])
}
