package colors

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha color palette, the subset used by the CLI output
var (
	Surface1 = lipgloss.Color("#45475a") // Borders
	Overlay0 = lipgloss.Color("#6c7086") // Dimmed text
	Subtext0 = lipgloss.Color("#a6adc8") // Labels
	Text     = lipgloss.Color("#cdd6f4") // Main text

	Blue   = lipgloss.Color("#89b4fa")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)
