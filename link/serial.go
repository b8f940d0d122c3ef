package link

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/tinyprog/go-eeprom/device"
)

// Default USB identity of the programmer board (CH340 USB-serial bridge).
const (
	DefaultVID = "1A86"
	DefaultPID = "7523"
)

// DefaultBaudRate matches the programmer firmware's UART configuration.
const DefaultBaudRate = 115200

// defaultReadTimeout bounds a single port read so ReadBytes can surface
// "nothing available yet" as an empty read instead of blocking forever.
const defaultReadTimeout = 50 * time.Millisecond

// readBufferSize is the size of the receive buffer between the port and
// the engine's pulls.
const readBufferSize = 4096

type serialConfig struct {
	baudRate    int
	readTimeout time.Duration
	vid, pid    string
}

func defaultSerialConfig() serialConfig {
	return serialConfig{
		baudRate:    DefaultBaudRate,
		readTimeout: defaultReadTimeout,
		vid:         DefaultVID,
		pid:         DefaultPID,
	}
}

// SerialOption configures Open and Discover.
type SerialOption func(*serialConfig)

// WithBaudRate overrides the default baud rate.
func WithBaudRate(baud int) SerialOption {
	return func(c *serialConfig) {
		if baud > 0 {
			c.baudRate = baud
		}
	}
}

// WithReadTimeout overrides the per-read timeout that turns a quiet port
// into empty ReadBytes results.
func WithReadTimeout(d time.Duration) SerialOption {
	return func(c *serialConfig) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WithUSBID overrides the VID/PID pair Discover scans for.
func WithUSBID(vid, pid string) SerialOption {
	return func(c *serialConfig) {
		c.vid = vid
		c.pid = pid
	}
}

// Serial is the Link implementation over a real serial port. Reads go
// through an internal buffer so ack scanning never reads the port one
// byte at a time.
type Serial struct {
	port serial.Port
	name string

	buf []byte
	r   int
	w   int
}

// Open opens the named serial port and returns a ready Link.
func Open(portName string, opts ...SerialOption) (*Serial, error) {
	cfg := defaultSerialConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: cfg.baudRate})
	if err != nil {
		return nil, &ConnectionError{Port: portName, Err: err}
	}
	if err := port.SetReadTimeout(cfg.readTimeout); err != nil {
		port.Close()
		return nil, &ConnectionError{Port: portName, Err: err}
	}

	return &Serial{
		port: port,
		name: portName,
		buf:  make([]byte, readBufferSize),
	}, nil
}

// Discover scans the USB serial ports for the programmer's VID/PID and
// opens the first match.
func Discover(opts ...SerialOption) (*Serial, error) {
	cfg := defaultSerialConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if strings.EqualFold(p.VID, cfg.vid) && strings.EqualFold(p.PID, cfg.pid) {
			return Open(p.Name, opts...)
		}
	}

	return nil, &ConnectionError{
		Err: fmt.Errorf("no USB serial port with ID %s:%s", cfg.vid, cfg.pid),
	}
}

// Port returns the name of the open port.
func (s *Serial) Port() string {
	return s.name
}

// SendCommand frames op with the optional address range and writes it.
func (s *Serial) SendCommand(op byte, r *device.Range) error {
	return s.WriteBytes(FrameCommand(op, r))
}

// WriteBytes writes p fully to the port.
func (s *Serial) WriteBytes(p []byte) error {
	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		p = p[n:]
	}
	return nil
}

// ReadBytes copies buffered data into p, refilling from the port at most
// once. A quiet port yields (0, nil), which the engine treats as "try
// again", not end of stream.
func (s *Serial) ReadBytes(p []byte) (int, error) {
	if s.r == s.w {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.buf[s.r:s.w])
	s.r += n
	return n, nil
}

// ReadAck blocks until a full line arrives and returns it without the
// trailing newline (a CR before it is stripped too).
func (s *Serial) ReadAck() (string, error) {
	var line []byte
	for {
		for s.r < s.w {
			c := s.buf[s.r]
			s.r++
			if c == '\n' {
				return strings.TrimSuffix(string(line), "\r"), nil
			}
			line = append(line, c)
		}
		if err := s.fill(); err != nil {
			return "", err
		}
	}
}

// Close closes the underlying port.
func (s *Serial) Close() error {
	return s.port.Close()
}

// fill performs one port read into the internal buffer. A read timeout
// leaves the buffer empty without error.
func (s *Serial) fill() error {
	s.r, s.w = 0, 0
	n, err := s.port.Read(s.buf)
	if err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	s.w = n
	return nil
}
