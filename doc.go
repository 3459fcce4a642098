// Package usbtool finds the tty device node that belongs to a particular
// USB serial device when several similar adapters are attached at once.
//
// Devices are told apart by up to three signals: the USB vendor:product ID,
// the serial number and manufacturer strings from the udev attribute walk,
// and an optional probe that writes a command over the serial line and
// compares the reply byte for byte.
//
// # Basic Usage
//
// Find the adapter with a given serial number:
//
//	r := usbtool.NewResolver(usbtool.Config{Logger: logger})
//	dev, err := r.Find(ctx, usbtool.Query{SerialNumber: "FT123456"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(dev) // /dev/ttyUSB1
//
// Narrow a set of identical FTDI adapters down with a probe:
//
//	dev, err := r.Find(ctx, usbtool.Query{
//	    USBID:       "0403:6001",
//	    CommandHex:  "05",
//	    ResponseHex: "06",
//	    BaudRate:    9600,
//	    Timeout:     time.Second,
//	})
//
// Find returns the first match in enumeration order. FindAll returns every
// match.
//
// # Collaborators
//
// The Resolver talks to the system through four interfaces, each with a
// Linux implementation:
//
//   - CandidateLister: Enumerator, /sys/bus/usb-serial/devices and /dev/ttyACM*
//   - AttributeSource: UdevadmSource, udevadm info --attribute-walk
//   - ListingSource: LsusbSource, lsusb
//   - Prober: SerialProber, a raw termios port framed by LineSettings (8N1 by default)
//
// Tests substitute canned text and scripted probe replies.
//
// # Error Handling
//
//	var cfgErr *usbtool.ConfigError        // bad query, no device touched
//	var accessErr *usbtool.DeviceAccessError // attribute walk or open failed
//	var noMatch *usbtool.NoMatchError      // every candidate was examined
//	var shortWrite *usbtool.ProbeIntegrityError
//
// A device without a serial number or manufacturer attribute is simply not
// a match. A probe that is refused for lack of permission skips that device
// and the search continues.
package usbtool
