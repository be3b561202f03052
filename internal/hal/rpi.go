package hal

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	goserial "go.bug.st/serial"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// RaspberryPiHAL is the real-hardware HAL: go-rpio drives the auxiliary
// GPIO pins (status LED, calibration button), while periph.io's i2creg/
// spireg claim the I2C and SPI buses — SPI being the bulk-transfer path
// LocalDriver pushes each frame's encoded pixel stream through.
type RaspberryPiHAL struct {
	gpio   *RaspberryPiGPIO
	i2c    *RaspberryPiI2C
	spi    *RaspberryPiSPI
	serial *RaspberryPiSerial
	info   BoardInfo
}

// NewRaspberryPiHAL opens the GPIO chip and initializes periph.io's host
// drivers, then detects the board model to size MaxConcurrentStrips.
func NewRaspberryPiHAL() (*RaspberryPiHAL, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hal: init periph host: %w", err)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("hal: open gpio: %w", err)
	}

	info, err := DetectBoard()
	if err != nil {
		info = &BoardInfo{Name: "Unknown Raspberry Pi", NumSPI: 1, MaxConcurrentStrips: 1}
	}

	return &RaspberryPiHAL{
		gpio:   &RaspberryPiGPIO{pins: make(map[int]rpio.Pin), pwm: make(map[int]*pwmState)},
		i2c:    &RaspberryPiI2C{},
		spi:    &RaspberryPiSPI{},
		serial: &RaspberryPiSerial{},
		info:   *info,
	}, nil
}

func (h *RaspberryPiHAL) GPIO() GPIOProvider     { return h.gpio }
func (h *RaspberryPiHAL) I2C() I2CProvider       { return h.i2c }
func (h *RaspberryPiHAL) SPI() SPIProvider       { return h.spi }
func (h *RaspberryPiHAL) Serial() SerialProvider { return h.serial }
func (h *RaspberryPiHAL) Info() BoardInfo        { return h.info }

func (h *RaspberryPiHAL) Close() error {
	_ = h.i2c.Close()
	_ = h.spi.Close()
	_ = h.serial.Close()
	return h.gpio.Close()
}

type pwmState struct {
	frequency int
	dutyCycle int
}

// RaspberryPiGPIO drives auxiliary pins (status LED, calibration
// button) with go-rpio; the strip's own pixel data never runs through
// here, see RaspberryPiSPI.
type RaspberryPiGPIO struct {
	mu   sync.Mutex
	pins map[int]rpio.Pin
	pwm  map[int]*pwmState
}

func (g *RaspberryPiGPIO) SetMode(pin int, mode PinMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	case PWM:
		p.Output() // duty cycle recorded by PWMWrite below
		g.pwm[pin] = &pwmState{frequency: 1000}
	default:
		return fmt.Errorf("hal: unsupported pin mode %v", mode)
	}
	g.pins[pin] = p
	return nil
}

func (g *RaspberryPiGPIO) SetPull(pin int, pull PullMode) error {
	p := rpio.Pin(pin)
	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		p.PullOff()
	}
	return nil
}

func (g *RaspberryPiGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.Lock()
	p, ok := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("hal: pin %d not initialized", pin)
	}
	return p.Read() == rpio.High, nil
}

func (g *RaspberryPiGPIO) DigitalWrite(pin int, value bool) error {
	g.mu.Lock()
	p, ok := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not initialized", pin)
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// PWMWrite records value as the pin's duty cycle and drives the pin high
// for any non-zero value, low for zero; this provider generates no PWM
// waveform.
func (g *RaspberryPiGPIO) PWMWrite(pin int, value int) error {
	g.mu.Lock()
	state, ok := g.pwm[pin]
	p := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not configured for PWM", pin)
	}
	if value < 0 || value > 255 {
		return fmt.Errorf("hal: PWM value must be 0-255")
	}
	state.dutyCycle = value
	p.Write(rpio.State(value & 0xFF))
	return nil
}

func (g *RaspberryPiGPIO) SetPWMFrequency(pin int, freq int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.pwm[pin]
	if !ok {
		return fmt.Errorf("hal: pin %d not configured for PWM", pin)
	}
	// go-rpio v4 doesn't expose hardware PWM frequency directly; the
	// strip data path never uses software PWM timing, only a status
	// LED might, so this is recorded for inventory purposes only.
	state.frequency = freq
	return nil
}

func (g *RaspberryPiGPIO) WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error {
	return fmt.Errorf("hal: edge-triggered watch is not implemented on this provider")
}

// ActivePins reports every configured pin's mode, for the status
// endpoint's hardware inventory (spec.md §6).
func (g *RaspberryPiGPIO) ActivePins() map[int]PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]PinMode, len(g.pins))
	for pin := range g.pins {
		mode := Output
		if _, isPWM := g.pwm[pin]; isPWM {
			mode = PWM
		}
		out[pin] = mode
	}
	return out
}

func (g *RaspberryPiGPIO) Close() error {
	return rpio.Close()
}

// RaspberryPiI2C reaches an auxiliary sensor (ambient light, board
// temperature) over the periph.io-managed I2C bus.
type RaspberryPiI2C struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *i2c.Dev
}

func (d *RaspberryPiI2C) Open(address byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus == nil {
		bus, err := i2creg.Open("")
		if err != nil {
			return fmt.Errorf("hal: open i2c bus: %w", err)
		}
		d.bus = bus
	}
	d.dev = &i2c.Dev{Bus: d.bus, Addr: uint16(address)}
	return nil
}

func (d *RaspberryPiI2C) Read(length int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return nil, fmt.Errorf("hal: i2c device not opened")
	}
	buf := make([]byte, length)
	if err := d.dev.Tx(nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *RaspberryPiI2C) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return fmt.Errorf("hal: i2c device not opened")
	}
	return d.dev.Tx(data, nil)
}

func (d *RaspberryPiI2C) ReadRegister(register byte, length int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return nil, fmt.Errorf("hal: i2c device not opened")
	}
	buf := make([]byte, length)
	if err := d.dev.Tx([]byte{register}, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *RaspberryPiI2C) WriteRegister(register byte, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return fmt.Errorf("hal: i2c device not opened")
	}
	return d.dev.Tx(append([]byte{register}, data...), nil)
}

func (d *RaspberryPiI2C) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus == nil {
		return nil
	}
	return d.bus.Close()
}

// RaspberryPiSPI is the bulk-transfer bus LocalDriver pushes one whole
// frame's encoded pixel stream through per tick. Speed/mode/bits-per-
// word are staged by Set* calls and only take effect on the next
// Transfer, since periph.io's spi.Conn is immutable once connected.
type RaspberryPiSPI struct {
	mu    sync.Mutex
	port  spi.PortCloser
	speed physic.Frequency
	mode  spi.Mode
	bits  int
	conn  spi.Conn
}

func (s *RaspberryPiSPI) Open(bus, device int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	port, err := spireg.Open(fmt.Sprintf("SPI%d.%d", bus, device))
	if err != nil {
		return fmt.Errorf("hal: open spi: %w", err)
	}
	s.port = port
	s.speed = physic.MegaHertz
	s.bits = 8
	return nil
}

func (s *RaspberryPiSPI) SetSpeed(speedHz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = physic.Frequency(speedHz) * physic.Hertz
	s.conn = nil
	return nil
}

func (s *RaspberryPiSPI) SetMode(mode byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = spi.Mode(mode)
	s.conn = nil
	return nil
}

func (s *RaspberryPiSPI) SetBitsPerWord(bits byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits = int(bits)
	s.conn = nil
	return nil
}

// connect lazily (re)establishes the SPI connection; caller holds mu.
func (s *RaspberryPiSPI) connect() (spi.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	if s.port == nil {
		return nil, fmt.Errorf("hal: spi bus not opened")
	}
	conn, err := s.port.Connect(s.speed, s.mode, s.bits)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

func (s *RaspberryPiSPI) Transfer(data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, err := s.connect()
	if err != nil {
		return nil, fmt.Errorf("hal: spi connect: %w", err)
	}
	read := make([]byte, len(data))
	if err := conn.Tx(data, read); err != nil {
		return nil, fmt.Errorf("hal: spi transfer: %w", err)
	}
	return read, nil
}

func (s *RaspberryPiSPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// RaspberryPiSerial is the UART path to a USB/serial strip controller
// (e.g. a Fadecandy-style bridge).
type RaspberryPiSerial struct {
	mu   sync.Mutex
	name string
	mode goserial.Mode
	port goserial.Port
}

func (s *RaspberryPiSerial) Open(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = port
	s.mode = goserial.Mode{BaudRate: 115200, DataBits: 8, StopBits: goserial.OneStopBit, Parity: goserial.NoParity}
	return nil
}

// reopen closes any open port and opens it again with the current mode;
// caller holds mu. Read and Write call it only while no port is open, so
// Set* calls take effect only when made before the first Read or Write.
func (s *RaspberryPiSerial) reopen() error {
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
	if s.name == "" {
		return fmt.Errorf("hal: serial port not opened")
	}
	p, err := goserial.Open(s.name, &s.mode)
	if err != nil {
		return fmt.Errorf("hal: open serial: %w", err)
	}
	s.port = p
	return nil
}

func (s *RaspberryPiSerial) SetBaudRate(baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode.BaudRate = baud
	return nil
}

func (s *RaspberryPiSerial) SetDataBits(bits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode.DataBits = bits
	return nil
}

func (s *RaspberryPiSerial) SetStopBits(bits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch bits {
	case 2:
		s.mode.StopBits = goserial.TwoStopBits
	default:
		s.mode.StopBits = goserial.OneStopBit
	}
	return nil
}

func (s *RaspberryPiSerial) SetParity(parity byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch parity {
	case 1:
		s.mode.Parity = goserial.OddParity
	case 2:
		s.mode.Parity = goserial.EvenParity
	default:
		s.mode.Parity = goserial.NoParity
	}
	return nil
}

func (s *RaspberryPiSerial) Read(buffer []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		if err := s.reopen(); err != nil {
			return 0, err
		}
	}
	return s.port.Read(buffer)
}

func (s *RaspberryPiSerial) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		if err := s.reopen(); err != nil {
			return 0, err
		}
	}
	return s.port.Write(data)
}

func (s *RaspberryPiSerial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
