// Package hal is the hardware abstraction layer the render core drives
// an LED strip controller board through: a bulk SPI/serial path for the
// pixel data stream (LocalDriver in internal/sink), plus GPIO/I2C for
// the board-adjacent peripherals a controller typically carries (status
// LED, push-button input, an ambient-light or temperature sensor feeding
// calibration). The pixel data path itself never bit-bangs individual
// GPIO pins — WS2812B/SK6812 timing is generated by the SPI peripheral's
// clock, not software toggling.
package hal

import (
	"fmt"
	"sync"
)

// PinMode selects how a GPIO pin not used for the strip data path is
// driven: a status LED (Output), a button or sensor interrupt (Input),
// or a software-timed auxiliary signal (PWM).
type PinMode int

const (
	Input PinMode = iota
	Output
	PWM
)

// PullMode is the internal pull resistor state for an Input pin (e.g. a
// button wired without its own external pull-down).
type PullMode int

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)

// EdgeMode selects which transitions WatchEdge reports, used for things
// like a button-triggered calibration-mode toggle.
type EdgeMode int

const (
	EdgeNone EdgeMode = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// GPIOProvider controls auxiliary pins on the controller board: status
// LEDs, buttons, and other signals that sit alongside the strip's data
// path rather than on it.
type GPIOProvider interface {
	// SetMode configures pin's direction/role.
	SetMode(pin int, mode PinMode) error
	// SetPull configures pin's internal pull resistor.
	SetPull(pin int, pull PullMode) error
	// DigitalRead samples pin's current logic level.
	DigitalRead(pin int) (bool, error)
	// DigitalWrite drives pin to the given logic level.
	DigitalWrite(pin int, value bool) error
	// PWMWrite sets a software PWM duty cycle (0-255) on pin, used for a
	// dimmable status LED or a GPIO-driven fan.
	PWMWrite(pin int, value int) error
	// SetPWMFrequency sets the PWM carrier frequency for pin.
	SetPWMFrequency(pin int, freq int) error
	// WatchEdge invokes callback on every edge matching edge, e.g. a
	// calibration-mode toggle button.
	WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error
	// ActivePins reports every pin currently configured and its mode,
	// for the status endpoint's hardware inventory.
	ActivePins() map[int]PinMode
	// Close releases the GPIO chip handle.
	Close() error
}

// I2CProvider reaches an auxiliary sensor bus (ambient light, board
// temperature) sharing the controller's I2C header.
type I2CProvider interface {
	// Open selects the device at address for subsequent Read/Write.
	Open(address byte) error
	Read(length int) ([]byte, error)
	Write(data []byte) error
	ReadRegister(register byte, length int) ([]byte, error)
	WriteRegister(register byte, data []byte) error
	Close() error
}

// SPIProvider is the bulk-transfer path a LocalDriver sink uses to push
// one whole frame's encoded pixel bit-stream to a strip in a single
// Transfer call per tick (spec.md §4.9 step 5 SinkDispatch).
type SPIProvider interface {
	// Open claims bus/device (e.g. /dev/spidev0.0).
	Open(bus, device int) error
	// Transfer clocks data out (and, on full-duplex hardware, returns
	// whatever comes back on MISO; LED strips never drive MISO so the
	// return value is discarded by LocalDriver).
	Transfer(data []byte) ([]byte, error)
	// SetSpeed sets the SPI clock rate in Hz; this is what ultimately
	// determines whether the wire signal meets WS2812B/SK6812 bit
	// timing, so it is configured per sink from config (spec.md §3
	// SinkConfig) rather than hardcoded here.
	SetSpeed(speed int) error
	SetMode(mode byte) error
	SetBitsPerWord(bits byte) error
	Close() error
}

// SerialProvider is the UART path to a USB/serial strip controller
// (e.g. a Fadecandy-style bridge) speaking the serial sink's framed
// protocol (internal/sink's crc16-checked frame format).
type SerialProvider interface {
	Open(port string) error
	SetBaudRate(baud int) error
	SetDataBits(bits int) error
	SetStopBits(bits int) error
	// SetParity sets serial parity (0=none, 1=odd, 2=even).
	SetParity(parity byte) error
	Read(buffer []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
}

// HAL is the full controller-board handle: one SPI/serial/GPIO/I2C
// provider set plus the detected BoardInfo, shared process-wide via
// SetGlobalHAL/GetGlobalHAL so every sink and health check binds to the
// same underlying hardware.
type HAL interface {
	GPIO() GPIOProvider
	I2C() I2CProvider
	SPI() SPIProvider
	Serial() SerialProvider
	Info() BoardInfo
	Close() error
}

var (
	globalHAL HAL
	halMu     sync.RWMutex
)

// SetGlobalHAL installs h as the process-wide HAL handle, called once at
// startup by cmd/ledcore's platform-specific init (real board or mock).
func SetGlobalHAL(h HAL) {
	halMu.Lock()
	defer halMu.Unlock()
	globalHAL = h
}

// GetGlobalHAL returns the installed HAL handle, or an error if
// SetGlobalHAL has not run yet — cmd/ledcore's buildSink calls it
// before it constructs a local sink.
func GetGlobalHAL() (HAL, error) {
	halMu.RLock()
	defer halMu.RUnlock()
	if globalHAL == nil {
		return nil, fmt.Errorf("hal: global HAL not initialized")
	}
	return globalHAL, nil
}
