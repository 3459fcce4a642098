package usbtool

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Default enumeration locations
const (
	DefaultUSBSerialDir = "/sys/bus/usb-serial/devices"
	DefaultDevDir       = "/dev"
	DefaultACMPrefix    = "ttyACM"
)

// CandidateLister lists candidate serial devices.
type CandidateLister interface {
	List() ([]string, error)
}

// Enumerator lists USB serial candidates from two places: the entries of
// the usb-serial bus directory (ttyUSB devices bound to a usb-serial driver)
// and character devices in the device directory named with the ACM prefix
// (CDC/ACM devices, which do not register on the usb-serial bus).
//
// Availability is not checked; busy or vanished devices are still listed.
type Enumerator struct {
	USBSerialDir string
	DevDir       string
	ACMPrefix    string

	// isCharDevice is replaced in tests, which cannot create device nodes.
	isCharDevice func(path string) bool
}

// NewEnumerator returns an Enumerator using the standard Linux locations.
func NewEnumerator() *Enumerator {
	return &Enumerator{
		USBSerialDir: DefaultUSBSerialDir,
		DevDir:       DefaultDevDir,
		ACMPrefix:    DefaultACMPrefix,
	}
}

// List returns the usb-serial bus entries followed by the ACM device nodes,
// each in directory order.
func (e *Enumerator) List() ([]string, error) {
	var candidates []string

	busEntries, err := os.ReadDir(e.USBSerialDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// usbserial module not loaded
	case err != nil:
		return nil, err
	default:
		for _, entry := range busEntries {
			candidates = append(candidates, filepath.Join(e.USBSerialDir, entry.Name()))
		}
	}

	devEntries, err := os.ReadDir(e.DevDir)
	if err != nil {
		return nil, err
	}
	isChar := e.isCharDevice
	if isChar == nil {
		isChar = isCharacterDevice
	}
	for _, entry := range devEntries {
		if !strings.HasPrefix(entry.Name(), e.ACMPrefix) {
			continue
		}
		fullPath := filepath.Join(e.DevDir, entry.Name())
		if isChar(fullPath) {
			candidates = append(candidates, fullPath)
		}
	}

	return candidates, nil
}

// DevicePath maps a candidate to its device node under devDir.
func DevicePath(devDir, candidate string) string {
	return filepath.Join(devDir, filepath.Base(candidate))
}

// Devices lists candidates as device node paths.
func (e *Enumerator) Devices() ([]string, error) {
	candidates, err := e.List()
	if err != nil {
		return nil, err
	}
	devices := make([]string, len(candidates))
	for i, c := range candidates {
		devices[i] = DevicePath(e.DevDir, c)
	}
	return devices, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
