package hal

import (
	"fmt"
	"sync"
)

// MockHAL simulates a controller board's SPI/GPIO/I2C/Serial surface so
// the render core's sinks, health checks, and pattern pipeline can run
// end-to-end on a development machine with no strip attached.
type MockHAL struct {
	gpio   *MockGPIO
	i2c    *MockI2C
	spi    *MockSPI
	serial *MockSerial
	info   BoardInfo
}

// NewMockHAL constructs a MockHAL reporting itself as a generic 40-pin
// board; cmd/ledcore installs it whenever the Raspberry Pi HAL fails to
// initialize or the process isn't running on ARM Linux.
func NewMockHAL() *MockHAL {
	return &MockHAL{
		gpio:   &MockGPIO{pins: make(map[int]*MockPin)},
		i2c:    &MockI2C{},
		spi:    &MockSPI{},
		serial: &MockSerial{},
		info: BoardInfo{
			Model:               BoardUnknown,
			Name:                "ledcore Mock Board",
			HasWiFi:             false,
			HasBT:               false,
			NumGPIO:             40,
			NumPWM:              4,
			NumI2C:              2,
			NumSPI:              2,
			CPUCores:            4,
			RAMSize:             1024,
			MaxConcurrentStrips: 2,
		},
	}
}

func (m *MockHAL) GPIO() GPIOProvider     { return m.gpio }
func (m *MockHAL) I2C() I2CProvider       { return m.i2c }
func (m *MockHAL) SPI() SPIProvider       { return m.spi }
func (m *MockHAL) Serial() SerialProvider { return m.serial }
func (m *MockHAL) Info() BoardInfo        { return m.info }
func (m *MockHAL) Close() error           { return nil }

// LastFrame returns the most recent byte stream handed to the SPI
// provider's Transfer, for driver tests to assert against without a
// real strip attached.
func (m *MockHAL) LastFrame() []byte {
	return m.spi.lastFrame()
}

// AssignRole records which strip-control role a pin is standing in for
// in this simulated session. It has no effect on simulated behavior —
// it exists so a mock-board run can report, via RoleOf, which pins a
// real deployment would wire as the strip's data/clock lines versus its
// status LED or calibration button.
func (m *MockHAL) AssignRole(pin int, role StripPinRole) {
	m.gpio.assignRole(pin, role)
}

// RoleOf reports the role last assigned to pin, or RoleUnassigned.
func (m *MockHAL) RoleOf(pin int) StripPinRole {
	return m.gpio.roleOf(pin)
}

// StripPinRole names what a GPIO pin is standing in for on a simulated
// rig, for status/log readability; the strip's own pixel data never
// travels over a role-tagged pin (see SPIProvider/SerialProvider).
type StripPinRole string

const (
	RoleUnassigned StripPinRole = ""
	RoleDataLine   StripPinRole = "data_line"
	RoleClockLine  StripPinRole = "clock_line"
	RoleStatusLED  StripPinRole = "status_led"
	RoleButton     StripPinRole = "button"
)

// MockPin is one simulated GPIO pin's state.
type MockPin struct {
	mode  PinMode
	pull  PullMode
	value bool
	pwm   int
	freq  int
	role  StripPinRole
}

// MockGPIO simulates the auxiliary GPIO surface (status LEDs, buttons,
// role bookkeeping) that sits alongside the strip's SPI/serial data
// path rather than on it.
type MockGPIO struct {
	pins map[int]*MockPin
	mu   sync.RWMutex
}

func (g *MockGPIO) pinOrNew(pin int) *MockPin {
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	return g.pins[pin]
}

func (g *MockGPIO) assignRole(pin int, role StripPinRole) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinOrNew(pin).role = role
}

func (g *MockGPIO) roleOf(pin int) StripPinRole {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.pins[pin] == nil {
		return RoleUnassigned
	}
	return g.pins[pin].role
}

func (g *MockGPIO) SetMode(pin int, mode PinMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinOrNew(pin).mode = mode
	return nil
}

func (g *MockGPIO) SetPull(pin int, pull PullMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinOrNew(pin).pull = pull
	return nil
}

func (g *MockGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.pins[pin] == nil {
		return false, fmt.Errorf("hal: pin %d not initialized", pin)
	}
	return g.pins[pin].value, nil
}

func (g *MockGPIO) DigitalWrite(pin int, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinOrNew(pin).value = value
	return nil
}

func (g *MockGPIO) PWMWrite(pin int, value int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if value < 0 || value > 255 {
		return fmt.Errorf("hal: PWM value must be 0-255")
	}
	g.pinOrNew(pin).pwm = value
	return nil
}

func (g *MockGPIO) SetPWMFrequency(pin int, freq int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinOrNew(pin).freq = freq
	return nil
}

func (g *MockGPIO) WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error {
	// No simulated interrupt source (e.g. a calibration button) exists
	// yet; a real GPIO provider delivers edge events from the kernel.
	return nil
}

// ActivePins reports every simulated pin's configured mode, for the
// status endpoint's hardware inventory (spec.md §6).
func (g *MockGPIO) ActivePins() map[int]PinMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[int]PinMode, len(g.pins))
	for pin, p := range g.pins {
		out[pin] = p.mode
	}
	return out
}

func (g *MockGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins = make(map[int]*MockPin)
	return nil
}

// MockI2C simulates the auxiliary sensor bus (ambient light, board
// temperature) a controller may expose alongside the strip outputs.
type MockI2C struct {
	address byte
	data    []byte
	mu      sync.RWMutex
}

func (i *MockI2C) Open(address byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.address = address
	return nil
}

func (i *MockI2C) Read(length int) ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return make([]byte, length), nil
}

func (i *MockI2C) Write(data []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.data = data
	return nil
}

func (i *MockI2C) ReadRegister(register byte, length int) ([]byte, error) {
	return make([]byte, length), nil
}

func (i *MockI2C) WriteRegister(register byte, data []byte) error {
	return nil
}

func (i *MockI2C) Close() error {
	return nil
}

// MockSPI simulates the bulk-transfer bus a LocalDriver sink pushes one
// whole frame's encoded pixel stream through per tick, recording the
// last transfer so a driver test can assert the wire bytes it would
// have sent to a strip.
type MockSPI struct {
	mu          sync.RWMutex
	speed       int
	mode        byte
	bitsPerWord byte
	last        []byte
}

func (s *MockSPI) Open(bus, device int) error {
	return nil
}

func (s *MockSPI) Transfer(data []byte) ([]byte, error) {
	s.mu.Lock()
	s.last = append([]byte(nil), data...)
	s.mu.Unlock()
	return data, nil
}

func (s *MockSPI) lastFrame() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *MockSPI) SetSpeed(speed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
	return nil
}

func (s *MockSPI) SetMode(mode byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

func (s *MockSPI) SetBitsPerWord(bits byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitsPerWord = bits
	return nil
}

func (s *MockSPI) Close() error {
	return nil
}

// MockSerial simulates the UART path to a USB/serial strip controller.
type MockSerial struct {
	mu       sync.RWMutex
	port     string
	baudRate int
	dataBits int
	stopBits int
	parity   byte
}

func (s *MockSerial) Open(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
	return nil
}

func (s *MockSerial) SetBaudRate(baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baudRate = baud
	return nil
}

func (s *MockSerial) SetDataBits(bits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataBits = bits
	return nil
}

func (s *MockSerial) SetStopBits(bits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBits = bits
	return nil
}

func (s *MockSerial) SetParity(parity byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parity = parity
	return nil
}

func (s *MockSerial) Read(buffer []byte) (int, error) {
	return 0, nil
}

func (s *MockSerial) Write(data []byte) (int, error) {
	return len(data), nil
}

func (s *MockSerial) Close() error {
	return nil
}
