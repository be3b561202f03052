package sink

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
)

const (
	defaultMTU      = 1400
	udpHeaderLen    = 4 + 2 + 2 // seq + offset + payload_len
)

// UdpSink sends a frame as one or more UDP datagrams, each framed
// uint32_le seq | uint16_le offset_in_frame_bytes | uint16_le payload_len
// | payload, fragmented at the configured MTU, per spec.md §6.
type UdpSink struct {
	mu   sync.Mutex
	addr *net.UDPAddr
	conn *net.UDPConn
	mtu  int
	seq  uint32
}

// NewUdpSink constructs a UdpSink targeting host:port. mtu<=0 uses the
// spec default of 1400 payload bytes.
func NewUdpSink(hostPort string, mtu int) (*UdpSink, error) {
	addr, err := net.ResolveUDPAddr("udp4", hostPort)
	if err != nil {
		return nil, fmt.Errorf("udp sink: resolve %s: %w", hostPort, err)
	}
	if mtu <= 0 {
		mtu = defaultMTU
	}
	return &UdpSink{addr: addr, mtu: mtu}, nil
}

func (s *UdpSink) Configure(order ChannelOrder, ledCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, err := net.DialUDP("udp4", nil, s.addr)
	if err != nil {
		return fmt.Errorf("udp sink: dial %s: %w", s.addr, err)
	}
	s.conn = conn
	return nil
}

// Submit fragments frameBytes at s.mtu payload bytes per datagram and
// sends each with an incrementing per-frame sequence number (shared
// across all fragments of one frame, per the teacher's UDP node
// precedent of one sequence counter per logical send).
func (s *UdpSink) Submit(frameBytes []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("udp sink: not configured")
	}

	seq := s.seq
	s.seq++

	for offset := 0; offset < len(frameBytes); offset += s.mtu {
		end := offset + s.mtu
		if end > len(frameBytes) {
			end = len(frameBytes)
		}
		chunk := frameBytes[offset:end]

		datagram := make([]byte, udpHeaderLen+len(chunk))
		binary.LittleEndian.PutUint32(datagram[0:4], seq)
		binary.LittleEndian.PutUint16(datagram[4:6], uint16(offset))
		binary.LittleEndian.PutUint16(datagram[6:8], uint16(len(chunk)))
		copy(datagram[8:], chunk)

		if _, err := s.conn.Write(datagram); err != nil {
			return fmt.Errorf("udp sink: write: %w", err)
		}
	}
	return nil
}

func (s *UdpSink) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
