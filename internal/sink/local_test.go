package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflow/ledcore/internal/hal"
)

func TestLocalDriverConfigureOpensSPI(t *testing.T) {
	mockHAL := hal.NewMockHAL()
	d := NewLocalDriver(mockHAL, 0, 0, 3200000)

	require.NoError(t, d.Configure(OrderGRB, 3))
}

func TestLocalDriverSubmitTransfersFrameVerbatim(t *testing.T) {
	mockHAL := hal.NewMockHAL()
	d := NewLocalDriver(mockHAL, 0, 0, 3200000)
	require.NoError(t, d.Configure(OrderGRB, 2))

	frame := []byte{10, 20, 30, 40, 50, 60}
	require.NoError(t, d.Submit(frame))

	assert.Equal(t, frame, mockHAL.LastFrame())
}

func TestLocalDriverSubmitBeforeConfigureErrors(t *testing.T) {
	mockHAL := hal.NewMockHAL()
	d := NewLocalDriver(mockHAL, 0, 0, 3200000)

	err := d.Submit([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestLocalDriverShutdownClosesSPI(t *testing.T) {
	mockHAL := hal.NewMockHAL()
	d := NewLocalDriver(mockHAL, 0, 0, 3200000)
	require.NoError(t, d.Configure(OrderRGB, 1))

	require.NoError(t, d.Shutdown())

	// Submit after Shutdown should fail the same way as before Configure.
	err := d.Submit([]byte{1, 2, 3})
	assert.Error(t, err)
}
