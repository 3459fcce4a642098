package usbtool

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// USBResetter performs a USB-level reset of the device behind a tty. This
// can recover adapters that are in a hung state without unplugging them.
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
type USBResetter struct {
	Reader AttributeReader
	// Command defaults to "usbreset".
	Command string
	// Timeout bounds the usbreset invocation.
	Timeout time.Duration
	// Settle is how long to wait for the device to re-enumerate.
	Settle time.Duration
	Logger *zap.Logger

	run      func(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)
	lookPath func(file string) (string, error)
}

// NewUSBResetter returns a USBResetter reading bus addresses with reader.
func NewUSBResetter(reader AttributeReader, logger *zap.Logger) *USBResetter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &USBResetter{
		Reader:   reader,
		Command:  "usbreset",
		Timeout:  10 * time.Second,
		Settle:   2 * time.Second,
		Logger:   logger,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

// Available checks if the usbreset utility is available in PATH
func (r *USBResetter) Available() bool {
	_, err := r.lookPath(r.Command)
	return err == nil
}

// Reset resets the USB device behind device.
//
// Returns:
// - ErrUSBInfoNotAvailable if the attribute walk has no bus/device number
// - ErrUSBResetNotAvailable if usbreset utility not found
// - error if reset fails
func (r *USBResetter) Reset(ctx context.Context, device string) error {
	info, err := r.Reader.Describe(ctx, device)
	if err != nil {
		return fmt.Errorf("failed to get device info: %w", err)
	}
	if !info.BusNumber.Present || !info.DeviceNumber.Present {
		return fmt.Errorf("%s: %w", device, ErrUSBInfoNotAvailable)
	}

	usbPath, err := formatUSBPath(info.BusNumber.Value, info.DeviceNumber.Value)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", device, ErrUSBInfoNotAvailable, err)
	}

	if !r.Available() {
		return ErrUSBResetNotAvailable
	}

	r.Logger.Info("Resetting USB device", zap.String("device", device), zap.String("usb_path", usbPath))
	if _, err := r.run(ctx, r.Timeout, r.Command, usbPath); err != nil {
		return err
	}

	// USB devices typically take 1-2 seconds to become available again
	select {
	case <-time.After(r.Settle):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// formatUSBPath builds the BBB/DDD argument usbreset expects.
func formatUSBPath(bus, dev string) (string, error) {
	b, err := strconv.Atoi(bus)
	if err != nil {
		return "", fmt.Errorf("bus number %q: %w", bus, err)
	}
	d, err := strconv.Atoi(dev)
	if err != nil {
		return "", fmt.Errorf("device number %q: %w", dev, err)
	}
	return fmt.Sprintf("%03d/%03d", b, d), nil
}
