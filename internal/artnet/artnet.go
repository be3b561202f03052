// Package artnet implements the ArtNetReceiver of spec.md §4.6: a UDP
// listener accepting both ArtNet DMX (OpDmx) and sACN/E1.31 packets,
// decoding the configured universe's channel data into an RGBW pixel
// frame and publishing it to the render loop via a lock-free pointer
// swap, per the single-writer/single-reader discipline of spec.md §5.
package artnet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/edgeflow/ledcore/internal/colormath"
)

const (
	artNetPort = 6454
	sacnPort   = 5568

	opDmx = 0x5000

	rootVectorData = 0x00000004
	dmpVectorData  = 0x00000002

	// Fixed E1.31 offsets for the single-universe, single-DMP-layer
	// packet shape this receiver accepts (no layered extensions).
	sacnRootVectorOffset    = 18
	sacnFramingVectorOffset = 40
	sacnUniverseOffset      = 113
	sacnDMPVectorOffset     = 117
	sacnStartCodeOffset     = 125
	sacnDataOffset          = 126
	sacnMinLength           = sacnDataOffset + 1
)

var artNetHeader = []byte("Art-Net\x00")

// Config is the ArtNetState of spec.md §3, sans the last-packet fields
// which live in Frame below.
type Config struct {
	Enabled         bool
	Universe        int
	ChannelOffset   int
	LedsPerPixel    int
	LedCount        int
	StalenessPeriod time.Duration

	// OnPacket and OnDrop, if set, are invoked synchronously from the
	// network goroutine for each accepted or rejected packet, letting
	// the caller maintain artnet_packets_total/artnet_drops_total
	// (spec.md §6) without this package depending on internal/metrics.
	OnPacket func()
	OnDrop   func()
}

// Frame is a fully decoded universe payload expanded to per-LED RGBW
// pixels, ready to drop into a Group's range.
type Frame struct {
	Pixels    []colormath.RGBW
	Timestamp time.Time
	Stale     bool
}

// Receiver listens for ArtNet and sACN packets and republishes the most
// recently decoded frame for the configured universe. Published reads
// a *Frame through an atomic pointer swap: the network goroutine is the
// sole writer, the render loop the sole reader, per spec.md §5.
type Receiver struct {
	cfg       Config
	published atomic.Pointer[Frame]
	conns     []net.PacketConn
}

// NewReceiver constructs a Receiver bound to cfg. It does not open any
// socket until Start is called.
func NewReceiver(cfg Config) *Receiver {
	r := &Receiver{cfg: cfg}
	r.published.Store(&Frame{Stale: true})
	return r
}

// Published returns the most recently decoded frame, or a stale marker
// if the configured staleness period has elapsed since the last packet
// for this universe.
func (r *Receiver) Published() *Frame {
	f := r.published.Load()
	if f.Stale {
		return f
	}
	if r.cfg.StalenessPeriod > 0 && time.Since(f.Timestamp) > r.cfg.StalenessPeriod {
		return &Frame{Pixels: f.Pixels, Timestamp: f.Timestamp, Stale: true}
	}
	return f
}

// Start opens the ArtNet (UDP/6454) and sACN (UDP/5568 multicast,
// universe-derived group) sockets and blocks, reading packets until stop
// is closed or a fatal socket error occurs. It is intended to run as
// its own task, per spec.md §5's "ArtNet receiver (one task)".
func (r *Receiver) Start(stop <-chan struct{}) error {
	if !r.cfg.Enabled {
		<-stop
		return nil
	}

	artConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: artNetPort})
	if err != nil {
		return fmt.Errorf("artnet: listen udp/%d: %w", artNetPort, err)
	}
	defer artConn.Close()

	hi := byte(r.cfg.Universe >> 8)
	lo := byte(r.cfg.Universe & 0xff)
	group := net.IPv4(239, 255, hi, lo)
	sacnConn, err := net.ListenMulticastUDP("udp4", nil, &net.UDPAddr{IP: group, Port: sacnPort})
	if err != nil {
		return fmt.Errorf("artnet: listen multicast sacn: %w", err)
	}
	defer sacnConn.Close()

	r.conns = []net.PacketConn{artConn, sacnConn}

	errCh := make(chan error, 2)
	go r.readLoop(artConn, errCh)
	go r.readLoop(sacnConn, errCh)

	select {
	case <-stop:
		return nil
	case err := <-errCh:
		return err
	}
}

func (r *Receiver) readLoop(conn net.PacketConn, errCh chan<- error) {
	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		r.handlePacket(buf[:n])
	}
}

func (r *Receiver) handlePacket(data []byte) {
	payload, universe, err := decode(data)
	if err != nil || universe != r.cfg.Universe {
		if r.cfg.OnDrop != nil {
			r.cfg.OnDrop()
		}
		return
	}
	frame := r.buildFrame(payload)
	r.published.Store(frame)
	if r.cfg.OnPacket != nil {
		r.cfg.OnPacket()
	}
}

// decode dispatches to the ArtNet or sACN decoder based on the packet's
// leading bytes, returning the raw DMX channel payload and the universe
// it targets.
func decode(data []byte) (payload []byte, universe int, err error) {
	if len(data) >= len(artNetHeader) && string(data[:len(artNetHeader)]) == string(artNetHeader) {
		return decodeArtNet(data)
	}
	return decodeSacn(data)
}

func decodeArtNet(data []byte) ([]byte, int, error) {
	const headerLen = 8
	if len(data) < headerLen+10 {
		return nil, 0, errors.New("artnet: short packet")
	}
	opcode := binary.LittleEndian.Uint16(data[headerLen : headerLen+2])
	if opcode != opDmx {
		return nil, 0, errors.New("artnet: not OpDmx")
	}
	// data[8:10]=opcode, [10:12]=ProtVer, [12]=Sequence, [13]=Physical,
	// [14]=SubUni, [15]=Net, [16:18]=Length (big-endian).
	subUni := data[14]
	net_ := data[15]
	universe := int(net_)<<8 | int(subUni)
	if len(data) < 18 {
		return nil, 0, errors.New("artnet: missing length field")
	}
	length := int(binary.BigEndian.Uint16(data[16:18]))
	if length < 2 || length > 512 || len(data) < 18+length {
		return nil, 0, errors.New("artnet: invalid length")
	}
	return data[18 : 18+length], universe, nil
}

func decodeSacn(data []byte) ([]byte, int, error) {
	if len(data) < sacnMinLength {
		return nil, 0, errors.New("sacn: short packet")
	}
	rootVector := binary.BigEndian.Uint32(data[sacnRootVectorOffset : sacnRootVectorOffset+4])
	if rootVector != rootVectorData {
		return nil, 0, errors.New("sacn: unexpected root vector")
	}
	framingVector := binary.BigEndian.Uint32(data[sacnFramingVectorOffset : sacnFramingVectorOffset+4])
	if framingVector != dmpVectorData {
		return nil, 0, errors.New("sacn: unexpected framing vector")
	}
	dmpVector := data[sacnDMPVectorOffset]
	if dmpVector != dmpVectorData {
		return nil, 0, errors.New("sacn: unexpected dmp vector")
	}
	if data[sacnStartCodeOffset] != 0 {
		return nil, 0, errors.New("sacn: non-zero start code")
	}
	universe := int(binary.BigEndian.Uint16(data[sacnUniverseOffset : sacnUniverseOffset+2]))
	return data[sacnDataOffset:], universe, nil
}

// buildFrame extracts channel_offset..channel_offset+4*K from payload
// (K = ceil(led_count/leds_per_pixel)), converts each 4-byte group to an
// RGBW pixel, and replicates each across leds_per_pixel LEDs, per
// spec.md §4.6.
func (r *Receiver) buildFrame(payload []byte) *Frame {
	ledsPerPixel := r.cfg.LedsPerPixel
	if ledsPerPixel < 1 {
		ledsPerPixel = 1
	}
	k := (r.cfg.LedCount + ledsPerPixel - 1) / ledsPerPixel

	pixels := make([]colormath.RGBW, 0, r.cfg.LedCount)
	for i := 0; i < k; i++ {
		off := r.cfg.ChannelOffset + 4*i
		var px colormath.RGBW
		if off+4 <= len(payload) {
			px = colormath.RGBW{
				R: float64(payload[off]) / 255,
				G: float64(payload[off+1]) / 255,
				B: float64(payload[off+2]) / 255,
				W: float64(payload[off+3]) / 255,
			}
		}
		for rep := 0; rep < ledsPerPixel && len(pixels) < r.cfg.LedCount; rep++ {
			pixels = append(pixels, px)
		}
	}
	for len(pixels) < r.cfg.LedCount {
		pixels = append(pixels, colormath.RGBW{})
	}

	return &Frame{Pixels: pixels, Timestamp: now()}
}

// now is a var so tests can substitute a fixed clock without depending
// on wall time.
var now = time.Now
