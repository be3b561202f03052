package sink

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	serialFrameStart      = 0x7E
	minReconnectBackoff   = 100 * time.Millisecond
	maxReconnectBackoff   = 5 * time.Second
)

// SerialSink frames each submitted payload as
// 0x7E | len_le(2) | channel_order(1) | bytes | crc16_le(2), per
// spec.md §6, where len counts bytes after itself excluding the CRC. On
// I/O error it reconnects with exponential backoff bounded
// [100ms, 5s], matching spec.md §4.10 and the teacher's serial-node
// retry posture.
type SerialSink struct {
	mu       sync.Mutex
	portName string
	mode     *serial.Mode
	port     serial.Port

	order    ChannelOrder
	ledCount int
	backoff  time.Duration
}

// NewSerialSink constructs a SerialSink for portName at baud.
func NewSerialSink(portName string, baud int) *SerialSink {
	return &SerialSink{
		portName: portName,
		mode:     &serial.Mode{BaudRate: baud},
		backoff:  minReconnectBackoff,
	}
}

func (s *SerialSink) Configure(order ChannelOrder, ledCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.ledCount = ledCount
	return s.connectLocked()
}

func (s *SerialSink) connectLocked() error {
	port, err := serial.Open(s.portName, s.mode)
	if err != nil {
		return fmt.Errorf("serial sink: open %s: %w", s.portName, err)
	}
	s.port = port
	s.backoff = minReconnectBackoff
	return nil
}

// Submit frames payload and writes it, reconnecting with backoff on
// I/O error. A reconnect failure is a SinkTransient (spec.md §7): the
// frame is dropped, not an error returned as fatal.
func (s *SerialSink) Submit(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := encodeSerialFrame(byte(orderCode(s.order)), payload)

	if s.port == nil {
		if err := s.connectLocked(); err != nil {
			s.sleepBackoffLocked()
			return fmt.Errorf("serial sink: reconnect: %w", err)
		}
	}

	if _, err := s.port.Write(frame); err != nil {
		_ = s.port.Close()
		s.port = nil
		s.sleepBackoffLocked()
		return fmt.Errorf("serial sink: write: %w", err)
	}
	s.backoff = minReconnectBackoff
	return nil
}

func (s *SerialSink) sleepBackoffLocked() {
	time.Sleep(s.backoff)
	s.backoff *= 2
	if s.backoff > maxReconnectBackoff {
		s.backoff = maxReconnectBackoff
	}
}

func (s *SerialSink) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func orderCode(o ChannelOrder) int {
	switch o {
	case OrderGRB:
		return 1
	case OrderRGBW:
		return 2
	case OrderGRBW:
		return 3
	default:
		return 0
	}
}

// encodeSerialFrame builds 0x7E | len_le | channel_order | bytes | crc16_le.
func encodeSerialFrame(channelOrder byte, bytesPayload []byte) []byte {
	body := make([]byte, 1+len(bytesPayload))
	body[0] = channelOrder
	copy(body[1:], bytesPayload)

	frame := make([]byte, 1+2+len(body)+2)
	frame[0] = serialFrameStart
	binary.LittleEndian.PutUint16(frame[1:3], uint16(len(body)))
	copy(frame[3:], body)

	crc := crc16CCITT(frame[: 3+len(body)])
	binary.LittleEndian.PutUint16(frame[3+len(body):], crc)
	return frame
}

// crc16CCITT computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF),
// following the teacher's hand-rolled bit-at-a-time Modbus CRC pattern
// (pkg/nodes/gpio/modbus.go) adapted to the CCITT polynomial the serial
// wire format specifies.
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
