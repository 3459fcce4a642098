package usbtool

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const walkHeader = `
Udevadm info starts with the device specified by the devpath and then
walks up the chain of parent devices. It prints for every device
found, all possible attributes in the udev rules key format.
A rule to match, can be composed by the attributes of the device
and the attributes from one single parent device.
`

// ftdiWalk is a trimmed attribute walk of an FT232R on bus 1.
const ftdiWalk = walkHeader + `
  looking at device '/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/ttyUSB0/tty/ttyUSB0':
    KERNEL=="ttyUSB0"
    SUBSYSTEM=="tty"
    DRIVER==""

  looking at parent device '/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/ttyUSB0':
    KERNELS=="ttyUSB0"
    SUBSYSTEMS=="usb-serial"
    DRIVERS=="ftdi_sio"
    ATTRS{latency_timer}=="16"
    ATTRS{port_number}=="0"

  looking at parent device '/devices/pci0000:00/0000:00:14.0/usb1/1-2':
    KERNELS=="1-2"
    SUBSYSTEMS=="usb"
    DRIVERS=="usb"
    ATTRS{busnum}=="1"
    ATTRS{devnum}=="4"
    ATTRS{idProduct}=="6001"
    ATTRS{idVendor}=="0403"
    ATTRS{manufacturer}=="FTDI"
    ATTRS{product}=="FT232R USB UART"
    ATTRS{serial}=="A50285BI"

  looking at parent device '/devices/pci0000:00/0000:00:14.0/usb1':
    KERNELS=="usb1"
    SUBSYSTEMS=="usb"
    DRIVERS=="usb"
    ATTRS{busnum}=="1"
    ATTRS{devnum}=="1"
    ATTRS{idProduct}=="0002"
    ATTRS{idVendor}=="1d6b"
    ATTRS{manufacturer}=="Linux 6.1.0 xhci-hcd"
    ATTRS{product}=="xHCI Host Controller"
    ATTRS{serial}=="0000:00:14.0"
`

// ch340Walk has neither a serial nor a manufacturer anywhere in its chain.
const ch340Walk = walkHeader + `
  looking at device '/devices/pci0000:00/0000:00:14.0/usb1/1-3/1-3:1.0/ttyUSB1/tty/ttyUSB1':
    KERNEL=="ttyUSB1"
    SUBSYSTEM=="tty"

  looking at parent device '/devices/pci0000:00/0000:00:14.0/usb1/1-3':
    KERNELS=="1-3"
    SUBSYSTEMS=="usb"
    ATTRS{idProduct}=="7523"
    ATTRS{idVendor}=="1a86"
    ATTRS{product}=="USB Serial"
`

// simpleWalk returns a one-parent attribute walk. Empty serial or
// manufacturer values are left out of the walk.
func simpleWalk(id, serial, manufacturer string) string {
	vendor, product, _ := strings.Cut(id, ":")
	var b strings.Builder
	b.WriteString("  looking at parent device '/devices/usb1/1-1':\n")
	b.WriteString("    SUBSYSTEMS==\"usb\"\n")
	fmt.Fprintf(&b, "    ATTRS{idProduct}==%q\n", product)
	fmt.Fprintf(&b, "    ATTRS{idVendor}==%q\n", vendor)
	if manufacturer != "" {
		fmt.Fprintf(&b, "    ATTRS{manufacturer}==%q\n", manufacturer)
	}
	if serial != "" {
		fmt.Fprintf(&b, "    ATTRS{serial}==%q\n", serial)
	}
	return b.String()
}

const lsusbOutput = `Bus 002 Device 001: ID 1d6b:0003 Linux Foundation 3.0 root hub
Bus 001 Device 004: ID 0403:6001 Future Technology Devices International, Ltd FT232 Serial (UART) IC
Bus 001 Device 005: ID 1a86:7523 QinHeng Electronics CH340 serial converter
Bus 001 Device 006: ID 2341:0043 Arduino SA Uno R3 (CDC ACM)
Bus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub
`

type fakeLister struct {
	candidates []string
	err        error
	calls      int
}

func (f *fakeLister) List() ([]string, error) {
	f.calls++
	return f.candidates, f.err
}

// fakeAttributes serves walks keyed by device basename, so the sysfs
// candidate and its /dev node share one walk.
type fakeAttributes struct {
	walks map[string]string
	errs  map[string]error
	calls int
}

func (f *fakeAttributes) AttributeWalk(_ context.Context, path string) (string, error) {
	f.calls++
	name := filepath.Base(path)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.walks[name], nil
}

type fakeListing struct {
	text  string
	err   error
	calls int
}

func (f *fakeListing) USBListing(context.Context) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeProber struct {
	replies map[string][]byte
	errs    map[string]error
	probed  []string
	last    struct {
		baudRate int
		timeout  time.Duration
		command  []byte
	}
}

func (f *fakeProber) Probe(_ context.Context, path string, baudRate int, timeout time.Duration, command []byte) ([]byte, error) {
	f.probed = append(f.probed, path)
	f.last.baudRate = baudRate
	f.last.timeout = timeout
	f.last.command = command
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	return f.replies[path], nil
}

type fixture struct {
	lister  *fakeLister
	attrs   *fakeAttributes
	listing *fakeListing
	prober  *fakeProber
}

func newFixture(candidates ...string) *fixture {
	return &fixture{
		lister:  &fakeLister{candidates: candidates},
		attrs:   &fakeAttributes{walks: map[string]string{}, errs: map[string]error{}},
		listing: &fakeListing{text: lsusbOutput},
		prober:  &fakeProber{replies: map[string][]byte{}, errs: map[string]error{}},
	}
}

func (f *fixture) resolver() *Resolver {
	return NewResolver(Config{
		Lister:     f.lister,
		DevDir:     "/dev",
		Attributes: f.attrs,
		Listing:    f.listing,
		Prober:     f.prober,
	})
}

func (f *fixture) totalCalls() int {
	return f.lister.calls + f.attrs.calls + f.listing.calls + len(f.prober.probed)
}
