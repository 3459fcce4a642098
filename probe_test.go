package usbtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/allbin/usbtool/internal/serialport"
)

// fakePort replays scripted reads and records writes.
type fakePort struct {
	reads    [][]byte
	readErr  error
	written  bytes.Buffer
	shortBy  int
	flushed  bool
	drained  bool
	drainErr error
	closed   bool
	closeErr error
	config   serialport.Config
}

func (p *fakePort) Close() error {
	p.closed = true
	return p.closeErr
}

func (p *fakePort) WriteContext(_ context.Context, data []byte) (int, error) {
	n := len(data) - p.shortBy
	p.written.Write(data[:n])
	return n, nil
}

func (p *fakePort) ReadContext(ctx context.Context, buf []byte) (int, error) {
	if len(p.reads) == 0 {
		if p.readErr != nil {
			return 0, p.readErr
		}
		return 0, nil
	}
	n := copy(buf, p.reads[0])
	p.reads = p.reads[1:]
	return n, nil
}

func (p *fakePort) Drain() error {
	p.drained = p.written.Len() > 0
	return p.drainErr
}

func (p *fakePort) FlushInput() error {
	p.flushed = true
	return nil
}

func proberWith(port *fakePort, openErr error) *SerialProber {
	p := NewSerialProber(zap.NewNop(), false)
	p.open = func(_ string, opts ...serialport.Option) (serialport.Port, error) {
		if openErr != nil {
			return nil, openErr
		}
		config := serialport.DefaultConfig()
		for _, opt := range opts {
			if err := opt(&config); err != nil {
				return nil, err
			}
		}
		port.config = config
		return port, nil
	}
	return p
}

func TestProbeExchange(t *testing.T) {
	port := &fakePort{reads: [][]byte{{0x06}, {0x0d, 0x0a}}}
	p := proberWith(port, nil)

	got, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05})
	if err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte{0x06, 0x0d, 0x0a}) {
		t.Errorf("Probe() = % x, want 06 0d 0a", got)
	}
	if !bytes.Equal(port.written.Bytes(), []byte{0x05}) {
		t.Errorf("written = % x, want 05", port.written.Bytes())
	}
	if !port.flushed {
		t.Error("stale input was not flushed before writing")
	}
	if !port.drained {
		t.Error("output was not drained after writing")
	}
	if !port.closed {
		t.Error("port was not closed")
	}
}

func TestLineSettingsReachPort(t *testing.T) {
	tests := []struct {
		name string
		line LineSettings
		want serialport.Config
	}{
		{
			name: "zero value is 8N1",
			want: serialport.Config{BaudRate: 19200, DataBits: 8, StopBits: 1, ReadTimeout: time.Second},
		},
		{
			name: "7E2 with hardware flow control",
			line: LineSettings{DataBits: 7, StopBits: 2, Parity: serialport.ParityEven, FlowControl: serialport.FlowControlRTSCTS},
			want: serialport.Config{
				BaudRate:    19200,
				DataBits:    7,
				StopBits:    2,
				Parity:      serialport.ParityEven,
				FlowControl: serialport.FlowControlRTSCTS,
				ReadTimeout: time.Second,
			},
		},
		{
			name: "odd parity keeps default bits",
			line: LineSettings{Parity: serialport.ParityOdd},
			want: serialport.Config{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: serialport.ParityOdd, ReadTimeout: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &fakePort{}
			p := proberWith(port, nil)
			p.Line = tt.line

			if _, err := p.Probe(context.Background(), "/dev/ttyUSB0", 19200, time.Second, []byte{0x05}); err != nil {
				t.Fatalf("Probe() unexpected error: %v", err)
			}
			if port.config != tt.want {
				t.Errorf("port opened with %+v, want %+v", port.config, tt.want)
			}
		})
	}
}

func TestBadFramingIsConfigError(t *testing.T) {
	port := &fakePort{}
	p := proberWith(port, nil)
	p.Line = LineSettings{DataBits: 9}

	_, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05})

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Probe() error = %v, want *ConfigError", err)
	}
	if !errors.Is(err, serialport.ErrInvalidConfig) {
		t.Errorf("error does not wrap serialport.ErrInvalidConfig: %v", err)
	}
	if port.written.Len() != 0 {
		t.Errorf("wrote % x despite invalid framing", port.written.Bytes())
	}
}

func TestDrainFailure(t *testing.T) {
	drainErr := errors.New("input/output error")
	port := &fakePort{reads: [][]byte{{0x06}}, drainErr: drainErr}
	p := proberWith(port, nil)

	_, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05})

	var accessErr *DeviceAccessError
	if !errors.As(err, &accessErr) || accessErr.Op != "drain" {
		t.Fatalf("Probe() error = %v, want drain DeviceAccessError", err)
	}
	if !errors.Is(err, drainErr) {
		t.Errorf("error does not wrap the drain error")
	}
	if !port.closed {
		t.Error("port was not closed after a drain failure")
	}
}

func TestNewLineSettings(t *testing.T) {
	tests := []struct {
		name        string
		dataBits    int
		stopBits    int
		parity      string
		flowControl string
		want        LineSettings
		wantString  string
		wantErr     bool
	}{
		{"defaults", 8, 1, "none", "none", LineSettings{DataBits: 8, StopBits: 1}, "8N1", false},
		{"7E1", 7, 1, "even", "", LineSettings{DataBits: 7, StopBits: 1, Parity: serialport.ParityEven}, "7E1", false},
		{"8O2 rtscts", 8, 2, "odd", "rtscts", LineSettings{DataBits: 8, StopBits: 2, Parity: serialport.ParityOdd, FlowControl: serialport.FlowControlRTSCTS}, "8O2/rtscts", false},
		{"bad parity", 8, 1, "space", "none", LineSettings{}, "", true},
		{"bad flow control", 8, 1, "none", "xon", LineSettings{}, "", true},
		{"bad data bits", 4, 1, "none", "none", LineSettings{}, "", true},
		{"bad stop bits", 8, 3, "none", "none", LineSettings{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLineSettings(tt.dataBits, tt.stopBits, tt.parity, tt.flowControl)
			if tt.wantErr {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("NewLineSettings() error = %v, want *ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLineSettings() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NewLineSettings() = %+v, want %+v", got, tt.want)
			}
			if got.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantString)
			}
		})
	}
}

func TestProbeSilentDevice(t *testing.T) {
	port := &fakePort{}
	p := proberWith(port, nil)

	got, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05})
	if err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Probe() = % x, want no bytes", got)
	}
}

func TestProbeShortWrite(t *testing.T) {
	port := &fakePort{shortBy: 1}
	p := proberWith(port, nil)

	_, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x01, 0x02, 0x03})

	var integrityErr *ProbeIntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Probe() error = %v, want *ProbeIntegrityError", err)
	}
	if integrityErr.Written != 2 || integrityErr.Expected != 3 {
		t.Errorf("ProbeIntegrityError = %+v, want 2 of 3", integrityErr)
	}
	if !port.closed {
		t.Error("port was not closed after a short write")
	}
}

func TestProbeReadError(t *testing.T) {
	readErr := errors.New("input/output error")
	port := &fakePort{reads: [][]byte{{0x06}}, readErr: readErr}
	p := proberWith(port, nil)

	_, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05})

	var accessErr *DeviceAccessError
	if !errors.As(err, &accessErr) || accessErr.Op != "read" {
		t.Fatalf("Probe() error = %v, want read DeviceAccessError", err)
	}
	if !errors.Is(err, readErr) {
		t.Errorf("error does not wrap the read error")
	}
}

func TestProbeOpenErrors(t *testing.T) {
	tests := []struct {
		name           string
		openErr        error
		wantPermission bool
		wantConfig     bool
	}{
		{
			name:           "permission denied",
			openErr:        fmt.Errorf("failed to open /dev/ttyUSB0: %w", serialport.ErrPermissionDenied),
			wantPermission: true,
		},
		{
			name:       "unsupported baud rate",
			openErr:    serialport.ErrInvalidBaudRate,
			wantConfig: true,
		},
		{
			name:    "device busy",
			openErr: fmt.Errorf("failed to open /dev/ttyUSB0: %w", serialport.ErrDeviceInUse),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := proberWith(nil, tt.openErr)

			_, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05})
			if err == nil {
				t.Fatal("Probe() expected error")
			}
			if got := errors.Is(err, ErrPermissionDenied); got != tt.wantPermission {
				t.Errorf("errors.Is(err, ErrPermissionDenied) = %v, want %v", got, tt.wantPermission)
			}
			var cfgErr *ConfigError
			if got := errors.As(err, &cfgErr); got != tt.wantConfig {
				t.Errorf("errors.As(err, *ConfigError) = %v, want %v", got, tt.wantConfig)
			}
			if !tt.wantConfig {
				var accessErr *DeviceAccessError
				if !errors.As(err, &accessErr) || accessErr.Op != "open" {
					t.Errorf("error = %v, want open DeviceAccessError", err)
				}
			}
		})
	}
}

func TestProbeLogSerialData(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	port := &fakePort{reads: [][]byte{{0x06}}}
	p := proberWith(port, nil)
	p.Logger = zap.New(core)
	p.LogSerialData = true

	if _, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05}); err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}

	entries := logs.FilterMessage("Probe exchange").All()
	if len(entries) != 1 {
		t.Fatalf("got %d probe log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tx"] != "05" || fields["rx"] != "06" {
		t.Errorf("logged tx=%v rx=%v, want 05/06", fields["tx"], fields["rx"])
	}
}

func TestProbeQuietByDefault(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	port := &fakePort{reads: [][]byte{{0x06}}}
	p := proberWith(port, nil)
	p.Logger = zap.New(core)

	if _, err := p.Probe(context.Background(), "/dev/ttyUSB0", 9600, time.Second, []byte{0x05}); err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}
	if n := logs.FilterMessage("Probe exchange").Len(); n != 0 {
		t.Errorf("got %d info level probe entries without LogSerialData", n)
	}
}
