package usbtool

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeHex converts a probe command or response given on the command line
// into raw bytes. Whitespace separated groups are concatenated and each group
// may carry a leading 0x. Case is not significant.
func DecodeHex(s string) ([]byte, error) {
	groups := strings.Fields(s)
	for i, g := range groups {
		if len(g) >= 2 && g[0] == '0' && (g[1] == 'x' || g[1] == 'X') {
			groups[i] = g[2:]
		}
	}
	s = strings.Join(groups, "")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidHex, s, err)
	}
	return b, nil
}

// EncodeHex renders raw bytes as lowercase hex for display.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}
