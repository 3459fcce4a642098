// Package components renders static terminal output for the usbtool
// commands.
package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/usbtool/internal/tui/styles"
)

// RenderTable renders rows under headers as a styled table sized to its
// content. Rows shorter than headers are padded with empty cells.
func RenderTable(headers []string, rows [][]string) string {
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: lipgloss.Width(h)}
	}

	tableRows := make([]table.Row, len(rows))
	for r, row := range rows {
		cells := make(table.Row, len(headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			}
			if w := lipgloss.Width(cells[i]); w > columns[i].Width {
				columns[i].Width = w
			}
		}
		tableRows[r] = cells
	}

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Cell = styles.TableCellStyle
	// Nothing is selected in a static table.
	s.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithStyles(s),
		table.WithFocused(false),
		table.WithHeight(len(tableRows)+lipgloss.Height(styles.TableHeaderStyle.Render("x"))),
	)

	return t.View()
}
