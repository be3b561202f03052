// Package timesync implements the TimeSync component of spec.md §4.8:
// a shared anim_time across cooperating nodes via UDP broadcast on port
// 6455, with master, slave, and off modes.
package timesync

import (
	"encoding/binary"
	"errors"
	"math"
	"net"
	"sync"
	"time"
)

const (
	Port = 6455

	magic   = "LCTS"
	version = uint16(1)

	// PacketSize is the exact wire size: 4 (magic) + 2 (version) +
	// 2 (flags) + 8 (master_wall_ns) + 8 (anim_time_s).
	PacketSize = 4 + 2 + 2 + 8 + 8

	MinBroadcastPeriod = 100 * time.Millisecond
	MaxBroadcastPeriod = 5 * time.Second
)

// Mode selects TimeSync's role.
type Mode int

const (
	ModeOff Mode = iota
	ModeMaster
	ModeSlave
)

// Packet is the decoded form of the 24-byte wire payload.
type Packet struct {
	Version      uint16
	Flags        uint16
	MasterWallNs int64
	AnimTimeS    float64
}

// Encode writes p into its 24-byte little-endian wire form.
func (p Packet) Encode() []byte {
	buf := make([]byte, PacketSize)
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], p.Version)
	binary.LittleEndian.PutUint16(buf[6:8], p.Flags)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.MasterWallNs))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(p.AnimTimeS))
	return buf
}

// Decode parses a wire payload, validating the magic and exact length.
func Decode(buf []byte) (Packet, error) {
	if len(buf) != PacketSize {
		return Packet{}, errors.New("timesync: wrong packet size")
	}
	if string(buf[0:4]) != magic {
		return Packet{}, errors.New("timesync: bad magic")
	}
	return Packet{
		Version:      binary.LittleEndian.Uint16(buf[4:6]),
		Flags:        binary.LittleEndian.Uint16(buf[6:8]),
		MasterWallNs: int64(binary.LittleEndian.Uint64(buf[8:16])),
		AnimTimeS:    math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
	}, nil
}

// Clock produces anim_time for the render loop according to the
// configured Mode.
type Clock struct {
	mode Mode

	mu           sync.Mutex
	startupEpoch time.Time

	// slave state
	haveMaster   bool
	masterAddr   net.Addr
	localEpoch   time.Time
	animTimeEst  float64
	lastReceived time.Time
}

// NewClock constructs a Clock in the given mode, with its monotonic
// startup epoch fixed to now.
func NewClock(mode Mode) *Clock {
	return &Clock{mode: mode, startupEpoch: time.Now()}
}

// Mode reports the clock's configured role.
func (c *Clock) Mode() Mode { return c.mode }

// AnimTime returns the current animation time in seconds.
func (c *Clock) AnimTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeSlave:
		if !c.haveMaster {
			return time.Since(c.startupEpoch).Seconds()
		}
		predicted := c.animTimeEst + time.Since(c.localEpoch).Seconds()
		return predicted
	default: // ModeOff and ModeMaster both run their own local wall clock
		return time.Since(c.startupEpoch).Seconds()
	}
}

// ReceivePacket feeds a received master broadcast into the slave's
// drift-correction filter: anim_time <- 0.9*predicted + 0.1*received, no
// attempt at sub-frame alignment, per spec.md §4.8.
func (c *Clock) ReceivePacket(p Packet, from net.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.haveMaster {
		c.haveMaster = true
		c.masterAddr = from
		c.localEpoch = now
		c.animTimeEst = p.AnimTimeS
		c.lastReceived = now
		return
	}

	predicted := c.animTimeEst + now.Sub(c.localEpoch).Seconds()
	c.animTimeEst = 0.9*predicted + 0.1*p.AnimTimeS
	c.localEpoch = now
	c.lastReceived = now
}

// MasterPacket builds the broadcast payload a master sends this tick.
func (c *Clock) MasterPacket() Packet {
	return Packet{
		Version:      version,
		MasterWallNs: time.Now().UnixNano(),
		AnimTimeS:    c.AnimTime(),
	}
}

// RunMaster broadcasts a Packet every period (clamped to
// [MinBroadcastPeriod, MaxBroadcastPeriod]) until stop fires.
func (c *Clock) RunMaster(period time.Duration, stop <-chan struct{}) error {
	if period < MinBroadcastPeriod {
		period = MinBroadcastPeriod
	}
	if period > MaxBroadcastPeriod {
		period = MaxBroadcastPeriod
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return err
	}
	defer conn.Close()
	broadcastAddr := &net.UDPAddr{IP: net.IPv4bcast, Port: Port}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			pkt := c.MasterPacket()
			_, _ = conn.WriteTo(pkt.Encode(), broadcastAddr)
		}
	}
}

// RunSlave listens on Port for master broadcasts and feeds each into
// ReceivePacket until stop fires.
func (c *Clock) RunSlave(stop <-chan struct{}) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: Port})
	if err != nil {
		return err
	}
	defer conn.Close()

	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, PacketSize)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				errCh <- err
				return
			}
			pkt, err := Decode(buf[:n])
			if err != nil {
				continue
			}
			c.ReceivePacket(pkt, addr)
		}
	}()

	select {
	case <-stop:
		return nil
	case err := <-errCh:
		return err
	}
}
