package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/usbtool/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Blue).
			MarginTop(1)

	// Field styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(colors.Text)

	AbsentStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Italic(true)

	IdentityStyle = lipgloss.NewStyle().
			Foreground(colors.Peach)

	// Result styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(colors.Yellow)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Text).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1).
				BorderBottom(true).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// Field renders one "label value" line of a detail view.
func Field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), ValueStyle.Render(value))
}

// OptionalField renders a field whose value a device may not expose.
func OptionalField(label, value string, present bool) string {
	if !present {
		return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), AbsentStyle.Render("not reported"))
	}
	return Field(label, value)
}
