package usbtool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/usbtool/internal/serialport"
)

// Prober performs one write-then-read exchange with a serial device.
//
// Implementations must return an error matching ErrPermissionDenied when the
// device cannot be opened for lack of permission, and a *ProbeIntegrityError
// when the command was not written in full.
type Prober interface {
	Probe(ctx context.Context, path string, baudRate int, timeout time.Duration, command []byte) ([]byte, error)
}

// LineSettings is the character framing used while probing. The zero value
// is 8N1 without flow control.
type LineSettings struct {
	DataBits    int
	StopBits    int
	Parity      serialport.Parity
	FlowControl serialport.FlowControl
}

// NewLineSettings validates framing given by name, as it appears in
// configuration.
func NewLineSettings(dataBits, stopBits int, parity, flowControl string) (LineSettings, error) {
	par, err := serialport.ParseParity(parity)
	if err != nil {
		return LineSettings{}, configErrorf(err, "parity")
	}
	fc, err := serialport.ParseFlowControl(flowControl)
	if err != nil {
		return LineSettings{}, configErrorf(err, "flow control")
	}
	l := LineSettings{DataBits: dataBits, StopBits: stopBits, Parity: par, FlowControl: fc}
	cfg := serialport.DefaultConfig()
	for _, opt := range l.options() {
		if err := opt(&cfg); err != nil {
			return LineSettings{}, configErrorf(err, "line settings %s", l)
		}
	}
	return l, nil
}

// String formats l as e.g. "8N1" or "7E2/rtscts".
func (l LineSettings) String() string {
	dataBits, stopBits := l.DataBits, l.StopBits
	if dataBits == 0 {
		dataBits = 8
	}
	if stopBits == 0 {
		stopBits = 1
	}
	s := fmt.Sprintf("%d%c%d", dataBits, strings.ToUpper(l.Parity.String())[0], stopBits)
	if l.FlowControl != serialport.FlowControlNone {
		s += "/" + l.FlowControl.String()
	}
	return s
}

func (l LineSettings) options() []serialport.Option {
	opts := []serialport.Option{
		serialport.WithParity(l.Parity),
		serialport.WithFlowControl(l.FlowControl),
	}
	if l.DataBits != 0 {
		opts = append(opts, serialport.WithDataBits(l.DataBits))
	}
	if l.StopBits != 0 {
		opts = append(opts, serialport.WithStopBits(l.StopBits))
	}
	return opts
}

// SerialProber probes over a raw termios port.
type SerialProber struct {
	Logger *zap.Logger
	// LogSerialData logs every exchange at info level instead of debug.
	LogSerialData bool
	// Line is the framing used for every exchange.
	Line LineSettings

	open func(device string, opts ...serialport.Option) (serialport.Port, error)
}

// NewSerialProber returns a SerialProber logging to logger.
func NewSerialProber(logger *zap.Logger, logSerialData bool) *SerialProber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialProber{
		Logger:        logger,
		LogSerialData: logSerialData,
		open:          serialport.Open,
	}
}

// Probe opens path, writes command and collects every byte that arrives
// before the line goes quiet for timeout or timeout elapses overall. The
// response is returned as is; no framing is assumed.
func (p *SerialProber) Probe(ctx context.Context, path string, baudRate int, timeout time.Duration, command []byte) ([]byte, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	open := p.open
	if open == nil {
		open = serialport.Open
	}

	opts := append([]serialport.Option{
		serialport.WithBaudRate(baudRate),
		serialport.WithReadTimeout(serialport.ReadTimeoutFor(timeout)),
	}, p.Line.options()...)
	port, err := open(path, opts...)
	if err != nil {
		if errors.Is(err, serialport.ErrPermissionDenied) {
			return nil, &DeviceAccessError{Path: path, Op: "open", Err: fmt.Errorf("%w: %w", ErrPermissionDenied, err)}
		}
		if errors.Is(err, serialport.ErrInvalidBaudRate) {
			return nil, configErrorf(err, "baud rate %d", baudRate)
		}
		if errors.Is(err, serialport.ErrInvalidConfig) {
			return nil, configErrorf(err, "line settings %s", p.Line)
		}
		return nil, &DeviceAccessError{Path: path, Op: "open", Err: err}
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			logger.Warn("Failed to close serial port", zap.String("port", path), zap.Error(cerr))
		}
	}()

	if err := port.FlushInput(); err != nil {
		logger.Debug("Failed to flush stale input", zap.String("port", path), zap.Error(err))
	}

	n, err := port.WriteContext(ctx, command)
	if err != nil {
		return nil, &DeviceAccessError{Path: path, Op: "write", Err: err}
	}
	if n != len(command) {
		return nil, &ProbeIntegrityError{Path: path, Written: n, Expected: len(command)}
	}
	if err := port.Drain(); err != nil {
		return nil, &DeviceAccessError{Path: path, Op: "drain", Err: err}
	}

	response, err := readAll(ctx, port, timeout)
	if err != nil {
		return nil, &DeviceAccessError{Path: path, Op: "read", Err: err}
	}

	level := zap.DebugLevel
	if p.LogSerialData {
		level = zap.InfoLevel
	}
	if ce := logger.Check(level, "Probe exchange"); ce != nil {
		ce.Write(
			zap.String("port", path),
			zap.Stringer("line", p.Line),
			zap.String("tx", EncodeHex(command)),
			zap.String("rx", EncodeHex(response)),
		)
	}

	return response, nil
}

// readAll reads until a read returns no data (the VTIME timer expired with
// the line idle) or the overall deadline passes.
func readAll(ctx context.Context, port serialport.Port, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var response []byte
	buf := make([]byte, 256)
	for {
		n, err := port.ReadContext(ctx, buf)
		response = append(response, buf[:max(n, 0)]...)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return response, nil
		case err != nil:
			return response, err
		case n == 0:
			return response, nil
		}
	}
}
