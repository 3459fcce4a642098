package serialport

import (
	"fmt"
	"strings"
	"time"
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// String returns the name accepted by ParseFlowControl.
func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rtscts"
	}
	return fmt.Sprintf("FlowControl(%d)", int(f))
}

// ParseFlowControl maps "none" or "rtscts" to a FlowControl.
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlowControlNone, nil
	case "rtscts":
		return FlowControlRTSCTS, nil
	}
	return FlowControlNone, fmt.Errorf("%w: flow control %q", ErrInvalidConfig, s)
}

// String returns the name accepted by ParseParity.
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	}
	return fmt.Sprintf("Parity(%d)", int(p))
}

// ParseParity maps "none", "odd" or "even" to a Parity.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ParityNone, nil
	case "odd":
		return ParityOdd, nil
	case "even":
		return ParityEven, nil
	}
	return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidConfig, s)
}

// maxReadTimeout is the largest VTIME value (255 deciseconds).
const maxReadTimeout = 25500 * time.Millisecond

// Config holds the configuration for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
	// ReadTimeout is the inter-read timeout programmed into VTIME. It must be
	// a multiple of 100ms no larger than 25.5s. Zero makes reads non-blocking.
	ReadTimeout time.Duration
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns 9600 8N1 without flow control and a one second read timeout.
func DefaultConfig() Config {
	return Config{
		BaudRate:    9600,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
		ReadTimeout: time.Second,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// ValidateBaudRate reports ErrInvalidBaudRate for rates the termios layer
// cannot program.
func ValidateBaudRate(rate int) error {
	_, err := getBaudRate(rate)
	return err
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout sets the VTIME read timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > maxReadTimeout || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// ReadTimeoutFor rounds d up to the nearest timeout accepted by
// WithReadTimeout, clamping it to the VTIME range.
func ReadTimeoutFor(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d >= maxReadTimeout {
		return maxReadTimeout
	}
	step := 100 * time.Millisecond
	return ((d + step - 1) / step) * step
}
