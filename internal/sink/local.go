package sink

import (
	"fmt"
	"sync"

	"github.com/edgeflow/ledcore/internal/hal"
)

// LocalDriver pushes a frame's byte stream directly to an SPI-attached
// strip through the hal.HAL abstraction, generalized from the teacher's
// per-pin GPIO control to a single bulk transfer per frame: WS2812-class
// strips are driven by encoding each data bit as an SPI symbol at a bus
// speed tuned to the strip's bit timing, so one Submit is one
// Transfer.
type LocalDriver struct {
	mu    sync.Mutex
	h     hal.HAL
	bus   int
	dev   int
	speed int

	order    ChannelOrder
	ledCount int
	opened   bool
}

// NewLocalDriver constructs a LocalDriver against h, opening SPI bus/dev
// at the given clock speed (Hz) on first Configure.
func NewLocalDriver(h hal.HAL, bus, dev, speedHz int) *LocalDriver {
	return &LocalDriver{h: h, bus: bus, dev: dev, speed: speedHz}
}

func (d *LocalDriver) Configure(order ChannelOrder, ledCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.order = order
	d.ledCount = ledCount

	spi := d.h.SPI()
	if spi == nil {
		return fmt.Errorf("local driver: no SPI provider available")
	}
	if err := spi.Open(d.bus, d.dev); err != nil {
		return fmt.Errorf("local driver: spi open: %w", err)
	}
	if err := spi.SetSpeed(d.speed); err != nil {
		return fmt.Errorf("local driver: spi speed: %w", err)
	}
	if err := spi.SetMode(0); err != nil {
		return fmt.Errorf("local driver: spi mode: %w", err)
	}
	if err := spi.SetBitsPerWord(8); err != nil {
		return fmt.Errorf("local driver: spi bits: %w", err)
	}
	d.opened = true
	return nil
}

// Submit transfers frameBytes to the strip verbatim; frameBytes is
// expected to already be in this sink's configured channel order and
// 8-bit quantized, per the global pipeline of spec.md §4.9 step 4.
func (d *LocalDriver) Submit(frameBytes []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return fmt.Errorf("local driver: not configured")
	}
	spi := d.h.SPI()
	if _, err := spi.Transfer(frameBytes); err != nil {
		return &ErrFatal{Err: err}
	}
	return nil
}

func (d *LocalDriver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil
	}
	d.opened = false
	return d.h.SPI().Close()
}
