package artnet

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArtNetPacket(universe int, channels []byte) []byte {
	buf := make([]byte, 18+len(channels))
	copy(buf, artNetHeader)
	binary.LittleEndian.PutUint16(buf[8:10], opDmx)
	buf[14] = byte(universe & 0xff)
	buf[15] = byte(universe >> 8)
	binary.BigEndian.PutUint16(buf[16:18], uint16(len(channels)))
	copy(buf[18:], channels)
	return buf
}

func buildSacnPacket(universe int, channels []byte) []byte {
	buf := make([]byte, sacnDataOffset+len(channels))
	binary.BigEndian.PutUint32(buf[sacnRootVectorOffset:], rootVectorData)
	binary.BigEndian.PutUint32(buf[sacnFramingVectorOffset:], dmpVectorData)
	buf[sacnDMPVectorOffset] = dmpVectorData
	buf[sacnStartCodeOffset] = 0
	binary.BigEndian.PutUint16(buf[sacnUniverseOffset:], uint16(universe))
	copy(buf[sacnDataOffset:], channels)
	return buf
}

func TestDecodeArtNetOpDmx(t *testing.T) {
	channels := []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00}
	pkt := buildArtNetPacket(3, channels)

	payload, universe, err := decode(pkt)
	require.NoError(t, err)
	assert.Equal(t, 3, universe)
	assert.Equal(t, channels, payload)
}

func TestDecodeArtNetRejectsWrongOpcode(t *testing.T) {
	pkt := buildArtNetPacket(0, []byte{1, 2, 3, 4})
	binary.LittleEndian.PutUint16(pkt[8:10], 0x1234)
	_, _, err := decode(pkt)
	assert.Error(t, err)
}

func TestDecodeSacnAcceptsValidVectors(t *testing.T) {
	channels := []byte{0x10, 0x20, 0x30, 0x40}
	pkt := buildSacnPacket(5, channels)

	payload, universe, err := decode(pkt)
	require.NoError(t, err)
	assert.Equal(t, 5, universe)
	assert.Equal(t, channels, payload)
}

func TestDecodeSacnRejectsBadRootVector(t *testing.T) {
	pkt := buildSacnPacket(1, []byte{1, 2, 3, 4})
	binary.BigEndian.PutUint32(pkt[sacnRootVectorOffset:], 0xdeadbeef)
	_, _, err := decode(pkt)
	assert.Error(t, err)
}

func TestDecodeSacnRejectsNonZeroStartCode(t *testing.T) {
	pkt := buildSacnPacket(1, []byte{1, 2, 3, 4})
	pkt[sacnStartCodeOffset] = 1
	_, _, err := decode(pkt)
	assert.Error(t, err)
}

func TestBuildFrameReplicatesAcrossLedsPerPixel(t *testing.T) {
	r := NewReceiver(Config{
		Enabled:       true,
		Universe:      0,
		ChannelOffset: 0,
		LedsPerPixel:  2,
		LedCount:      4,
	})
	payload := []byte{
		0xFF, 0x00, 0x00, 0x00, // pixel 0: red
		0x00, 0xFF, 0x00, 0x00, // pixel 1: green
	}
	f := r.buildFrame(payload)
	require.Len(t, f.Pixels, 4)
	assert.InDelta(t, 1, f.Pixels[0].R, 1e-9)
	assert.InDelta(t, 1, f.Pixels[1].R, 1e-9)
	assert.InDelta(t, 1, f.Pixels[2].G, 1e-9)
	assert.InDelta(t, 1, f.Pixels[3].G, 1e-9)
}

func TestBuildFrameHonorsChannelOffset(t *testing.T) {
	r := NewReceiver(Config{Enabled: true, ChannelOffset: 4, LedsPerPixel: 1, LedCount: 1})
	payload := []byte{0, 0, 0, 0, 0x80, 0x00, 0x00, 0x00}
	f := r.buildFrame(payload)
	require.Len(t, f.Pixels, 1)
	assert.InDelta(t, float64(0x80)/255, f.Pixels[0].R, 1e-9)
}

func TestBuildFrameZeroPadsShortPayload(t *testing.T) {
	r := NewReceiver(Config{Enabled: true, LedsPerPixel: 1, LedCount: 3})
	f := r.buildFrame([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.Len(t, f.Pixels, 3)
	assert.InDelta(t, 0, f.Pixels[1].R, 1e-9)
	assert.InDelta(t, 0, f.Pixels[2].R, 1e-9)
}

func TestPublishedMarksStaleWhenNothingReceived(t *testing.T) {
	r := NewReceiver(Config{Enabled: true})
	f := r.Published()
	assert.True(t, f.Stale)
}

func TestPublishedMarksStaleAfterTimeout(t *testing.T) {
	r := NewReceiver(Config{Enabled: true, LedCount: 1, LedsPerPixel: 1, StalenessPeriod: 1})
	r.handlePacket(buildArtNetPacket(0, []byte{1, 2, 3, 4}))
	f := r.Published()
	assert.True(t, f.Stale, "a 1ns staleness period elapses immediately")
}
