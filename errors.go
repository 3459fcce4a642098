package usbtool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Predefined error types for robust error handling
var (
	// Query validation
	ErrNoDiscriminator   = errors.New("at least one of usb id, serial number, manufacturer or command is required")
	ErrResponseRequired  = errors.New("a probe command requires an expected response")
	ErrCommandRequired   = errors.New("an expected response requires a probe command")
	ErrMalformedIdentity = errors.New("usb id must be 9 characters of the form vvvv:pppp in lowercase hex")
	ErrInvalidHex        = errors.New("invalid hex string")
	ErrUnknownIdentity   = errors.New("usb id not present in the usb id catalog")
	ErrInvalidProbe      = errors.New("invalid probe settings")

	// Device access
	ErrPermissionDenied    = errors.New("permission denied accessing device")
	ErrMalformedAttributes = errors.New("malformed attribute walk output")

	// USB reset
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)

// ConfigError reports an invalid or insufficient query. It is always returned
// before any device I/O takes place.
type ConfigError struct {
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return "configuration error: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration error: %v: %s", e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// DeviceAccessError reports an OS level failure talking to one device,
// either while walking its attributes or while opening its serial port.
type DeviceAccessError struct {
	Path string
	Op   string
	Err  error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// ProbeIntegrityError reports a short write on the probe link. It is fatal
// for the whole resolution.
type ProbeIntegrityError struct {
	Path     string
	Written  int
	Expected int
}

func (e *ProbeIntegrityError) Error() string {
	return fmt.Sprintf("short write on %s: wrote %d of %d bytes", e.Path, e.Written, e.Expected)
}

// NoMatchError reports that every candidate was examined without a match.
// Error lists every filter that was attempted.
type NoMatchError struct {
	Query Query
}

func (e *NoMatchError) Error() string {
	q := e.Query
	var fields []string
	if q.CommandHex != "" {
		fields = append(fields,
			"command_hex="+quoteOrNone(q.CommandHex),
			"response_hex="+quoteOrNone(q.ResponseHex),
			"baud_rate="+strconv.Itoa(q.BaudRate),
		)
	}
	fields = append(fields,
		"usb_id="+quoteOrNone(q.USBID),
		"serial_number="+quoteOrNone(q.SerialNumber),
		"manufacturer="+quoteOrNone(q.Manufacturer),
	)
	// Line settings only apply alongside a command.
	if q.CommandHex != "" {
		fields = append(fields, "timeout="+q.Timeout.String())
	}
	return "no matching device found for " + strings.Join(fields, " ")
}

func quoteOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return strconv.Quote(s)
}
