package timesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := Packet{Version: 1, Flags: 0, MasterWallNs: 123456789, AnimTimeS: 42.5}
	buf := p.Encode()
	assert.Len(t, buf, PacketSize)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	p := Packet{AnimTimeS: 1}
	buf := p.Encode()
	buf[0] = 'X'
	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestOffModeUsesMonotonicWallClock(t *testing.T) {
	c := NewClock(ModeOff)
	time.Sleep(2 * time.Millisecond)
	a := c.AnimTime()
	time.Sleep(2 * time.Millisecond)
	b := c.AnimTime()
	assert.Greater(t, b, a)
}

func TestSlaveAdoptsFirstMasterPacket(t *testing.T) {
	c := NewClock(ModeSlave)
	c.ReceivePacket(Packet{AnimTimeS: 100}, nil)
	got := c.AnimTime()
	assert.GreaterOrEqual(t, got, 100.0)
	assert.Less(t, got, 100.1)
}

func TestSlaveDriftCorrectionBlendsTowardReceived(t *testing.T) {
	c := NewClock(ModeSlave)
	c.ReceivePacket(Packet{AnimTimeS: 0}, nil)
	// simulate local estimate having drifted ahead of a second packet
	c.mu.Lock()
	c.animTimeEst = 10
	c.localEpoch = time.Now()
	c.mu.Unlock()

	c.ReceivePacket(Packet{AnimTimeS: 5}, nil)
	c.mu.Lock()
	est := c.animTimeEst
	c.mu.Unlock()
	// 0.9*10 + 0.1*5 = 9.5
	assert.InDelta(t, 9.5, est, 0.05)
}

func TestMasterPacketCarriesCurrentAnimTime(t *testing.T) {
	c := NewClock(ModeMaster)
	pkt := c.MasterPacket()
	assert.Equal(t, version, pkt.Version)
	assert.GreaterOrEqual(t, pkt.AnimTimeS, 0.0)
}
