package usbtool

import "fmt"

// Identity is a USB vendor:product ID pair. Both halves are exactly four
// lowercase hex digits.
type Identity struct {
	Vendor  string
	Product string
}

// String returns the "vvvv:pppp" form used by lsusb and udev.
func (id Identity) String() string {
	return id.Vendor + ":" + id.Product
}

// ParseIdentity parses "vvvv:pppp". Anything else, including uppercase hex,
// is rejected with ErrMalformedIdentity.
func ParseIdentity(s string) (Identity, error) {
	if len(s) != 9 || s[4] != ':' {
		return Identity{}, fmt.Errorf("%w: %q", ErrMalformedIdentity, s)
	}
	id := Identity{Vendor: s[:4], Product: s[5:]}
	if !isLowerHex(id.Vendor) || !isLowerHex(id.Product) {
		return Identity{}, fmt.Errorf("%w: %q", ErrMalformedIdentity, s)
	}
	return id, nil
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
