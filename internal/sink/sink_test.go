package sink

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelOrderBytesPerPixel(t *testing.T) {
	assert.Equal(t, 3, OrderRGB.BytesPerPixel())
	assert.Equal(t, 3, OrderGRB.BytesPerPixel())
	assert.Equal(t, 4, OrderRGBW.BytesPerPixel())
	assert.Equal(t, 4, OrderGRBW.BytesPerPixel())
}

func TestChannelOrderPermute(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3}, OrderRGB.Permute(1, 2, 3, 4))
	assert.Equal(t, []byte{2, 1, 3}, OrderGRB.Permute(1, 2, 3, 4))
	assert.Equal(t, []byte{1, 2, 3, 4}, OrderRGBW.Permute(1, 2, 3, 4))
	assert.Equal(t, []byte{2, 1, 3, 4}, OrderGRBW.Permute(1, 2, 3, 4))
}

func TestEncodeSerialFrameStructure(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	frame := encodeSerialFrame(0, payload)

	require.True(t, len(frame) >= 1+2+1+len(payload)+2)
	assert.Equal(t, byte(serialFrameStart), frame[0])

	length := binary.LittleEndian.Uint16(frame[1:3])
	assert.Equal(t, uint16(1+len(payload)), length, "len excludes the start byte, length field, and CRC")

	body := frame[3 : 3+int(length)]
	assert.Equal(t, byte(0), body[0])
	assert.Equal(t, payload, body[1:])

	crcField := binary.LittleEndian.Uint16(frame[3+int(length):])
	assert.Equal(t, crc16CCITT(frame[:3+int(length)]), crcField)
}

func TestCrc16CCITTDeterministic(t *testing.T) {
	a := crc16CCITT([]byte("hello"))
	b := crc16CCITT([]byte("hello"))
	assert.Equal(t, a, b)

	c := crc16CCITT([]byte("hellp"))
	assert.NotEqual(t, a, c)
}

func TestOrderCodeRoundTrip(t *testing.T) {
	assert.Equal(t, 0, orderCode(OrderRGB))
	assert.Equal(t, 1, orderCode(OrderGRB))
	assert.Equal(t, 2, orderCode(OrderRGBW))
	assert.Equal(t, 3, orderCode(OrderGRBW))
}

func TestUdpSinkFragmentsAtMTU(t *testing.T) {
	listener, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listener.Close()

	s, err := NewUdpSink(listener.LocalAddr().String(), 10)
	require.NoError(t, err)
	require.NoError(t, s.Configure(OrderRGB, 0))
	defer s.Shutdown()

	frame := make([]byte, 25)
	for i := range frame {
		frame[i] = byte(i)
	}
	require.NoError(t, s.Submit(frame))

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
	var datagrams [][]byte
	buf := make([]byte, 64)
	for {
		n, _, err := listener.ReadFromUDP(buf)
		if err != nil {
			break
		}
		datagrams = append(datagrams, append([]byte(nil), buf[:n]...))
	}

	require.Len(t, datagrams, 3)
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(datagrams[0][4:6]))
	assert.Equal(t, uint16(10), binary.LittleEndian.Uint16(datagrams[1][4:6]))
	assert.Equal(t, uint16(20), binary.LittleEndian.Uint16(datagrams[2][4:6]))
	assert.Equal(t, uint16(5), binary.LittleEndian.Uint16(datagrams[2][6:8]))
}

func TestErrFatalWrapsUnderlying(t *testing.T) {
	inner := assert.AnError
	err := &ErrFatal{Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "fatal")
}
