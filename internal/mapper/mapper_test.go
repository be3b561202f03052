package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearMapperEndpoints(t *testing.T) {
	m := NewLinearMapper(4)
	assert.Equal(t, 0.0, m.X(0))
	assert.Equal(t, 1.0, m.X(3))
	assert.InDelta(t, 1.0/3.0, m.X(1), 1e-9)
	assert.InDelta(t, 2.0/3.0, m.X(2), 1e-9)
}

func TestLinearMapperSinglePixel(t *testing.T) {
	m := NewLinearMapper(1)
	assert.Equal(t, 0.0, m.X(0))
}

func TestLinearMapperInvariantAcrossCalls(t *testing.T) {
	m := NewLinearMapper(10)
	first := m.X(4)
	second := m.X(4)
	assert.Equal(t, first, second)
}
