package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/usbtool/internal/tui/colors"
)

// Direction of a probe transfer
type Direction int

const (
	TX Direction = iota
	RX
)

// FormatExchange renders one probe transfer as an arrow indicator followed
// by hex and printable ASCII.
func FormatExchange(dir Direction, data []byte) string {
	var indicator string
	if dir == TX {
		indicator = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Render("↗ TX")
	} else {
		indicator = lipgloss.NewStyle().
			Foreground(colors.Blue).
			Bold(true).
			Render("↙ RX")
	}

	if len(data) == 0 {
		return fmt.Sprintf("%s: %s", indicator, lipgloss.NewStyle().Foreground(colors.Overlay0).Render("(no data)"))
	}

	return fmt.Sprintf("%s: HEX: % X  ASCII: %s", indicator, data, PrintableASCII(data))
}

// PrintableASCII replaces every byte outside printable ASCII with a dot so
// device replies cannot inject terminal control sequences.
func PrintableASCII(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
