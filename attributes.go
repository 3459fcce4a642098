package usbtool

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AttributeSource produces the textual udev attribute walk of one device:
// the device itself followed by each of its parents, with attribute lines of
// the form ATTRS{name}=="value".
type AttributeSource interface {
	AttributeWalk(ctx context.Context, path string) (string, error)
}

// UdevadmSource runs `udevadm info --attribute-walk`.
type UdevadmSource struct {
	// Command defaults to "udevadm".
	Command string
	// Timeout bounds each invocation. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// AttributeWalk implements AttributeSource.
func (s UdevadmSource) AttributeWalk(ctx context.Context, path string) (string, error) {
	name := s.Command
	if name == "" {
		name = "udevadm"
	}
	return runCommand(ctx, s.Timeout, name, "info", "--attribute-walk", path)
}

// Optional is a string attribute that a device may not expose.
type Optional struct {
	Value   string
	Present bool
}

// Some returns a present Optional.
func Some(v string) Optional { return Optional{Value: v, Present: true} }

func (o Optional) String() string {
	if !o.Present {
		return "<absent>"
	}
	return o.Value
}

// Attributes are the static identity attributes of one device. Many USB
// serial bridges expose neither.
type Attributes struct {
	Serial       Optional
	Manufacturer Optional
}

// DeviceInfo is everything the info command shows for one device.
type DeviceInfo struct {
	Path         string
	Identity     Identity
	HasIdentity  bool
	Serial       Optional
	Manufacturer Optional
	Product      Optional
	BusNumber    Optional
	DeviceNumber Optional
}

// AttributeReader extracts identity attributes from an attribute walk.
type AttributeReader struct {
	Source AttributeSource
}

func (r AttributeReader) walk(ctx context.Context, path string) ([]string, error) {
	dump, err := r.Source.AttributeWalk(ctx, path)
	if err != nil {
		return nil, &DeviceAccessError{Path: path, Op: "attribute walk", Err: err}
	}
	return strings.Split(dump, "\n"), nil
}

// ReadAttributes returns the serial number and manufacturer of path.
func (r AttributeReader) ReadAttributes(ctx context.Context, path string) (Attributes, error) {
	lines, err := r.walk(ctx, path)
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{
		Serial:       findAttribute(lines, "serial"),
		Manufacturer: findAttribute(lines, "manufacturer"),
	}, nil
}

// ReadIdentity returns the USB identity of path. ok is false when the walk
// has no idProduct attribute.
func (r AttributeReader) ReadIdentity(ctx context.Context, path string) (id Identity, ok bool, err error) {
	lines, err := r.walk(ctx, path)
	if err != nil {
		return Identity{}, false, err
	}
	id, ok, err = identityFromWalk(lines)
	if err != nil {
		return Identity{}, false, fmt.Errorf("%s: %w", path, err)
	}
	return id, ok, nil
}

// Describe collects every attribute the info command displays.
func (r AttributeReader) Describe(ctx context.Context, path string) (DeviceInfo, error) {
	lines, err := r.walk(ctx, path)
	if err != nil {
		return DeviceInfo{}, err
	}
	id, ok, err := identityFromWalk(lines)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return DeviceInfo{
		Path:         path,
		Identity:     id,
		HasIdentity:  ok,
		Serial:       findAttribute(lines, "serial"),
		Manufacturer: findAttribute(lines, "manufacturer"),
		Product:      findAttribute(lines, "product"),
		BusNumber:    findAttribute(lines, "busnum"),
		DeviceNumber: findAttribute(lines, "devnum"),
	}, nil
}

func attributeMarker(name string) string {
	return "ATTRS{" + name + "}=="
}

// quotedValue returns the text after the first double quote of line, up to
// the next one if there is one.
func quotedValue(line string) (string, bool) {
	parts := strings.SplitN(line, `"`, 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// findAttribute returns the first ATTRS{name} value in the walk. The walk
// lists the device before its parents, so the closest device wins over hubs
// and controllers further up.
func findAttribute(lines []string, name string) Optional {
	marker := attributeMarker(name)
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, marker) {
			continue
		}
		if v, ok := quotedValue(l); ok {
			return Some(v)
		}
	}
	return Optional{}
}

// identityFromWalk locates the first idProduct line and takes the vendor ID
// from the line that follows it. The key of that line is not checked:
// udevadm sorts attributes, so idVendor directly follows idProduct. Any other
// attribute ordering breaks this.
func identityFromWalk(lines []string) (Identity, bool, error) {
	marker := attributeMarker("idProduct")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, marker) {
			continue
		}
		product, ok := quotedValue(l)
		if !ok {
			return Identity{}, false, fmt.Errorf("%w: unquoted idProduct line %q", ErrMalformedAttributes, l)
		}
		if i+1 >= len(lines) {
			return Identity{}, false, fmt.Errorf("%w: no line after idProduct", ErrMalformedAttributes)
		}
		vendor, ok := quotedValue(lines[i+1])
		if !ok {
			return Identity{}, false, fmt.Errorf("%w: no vendor id after idProduct: %q", ErrMalformedAttributes, strings.TrimSpace(lines[i+1]))
		}
		id, err := ParseIdentity(vendor + ":" + product)
		if err != nil {
			return Identity{}, false, fmt.Errorf("%w: %w", ErrMalformedAttributes, err)
		}
		return id, true, nil
	}
	return Identity{}, false, nil
}
