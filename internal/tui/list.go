package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// renderList renders the left panel: the section menu with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.sections) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No sections")
	}

	var lines []string
	for i, sec := range m.sections {
		if i < m.listOffset {
			continue
		}
		if len(lines) >= height {
			break
		}
		lines = append(lines, formatSectionLine(sec.Title, width, i == m.cursor))
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatSectionLine renders one menu entry, truncated to width.
func formatSectionLine(title string, width int, selected bool) string {
	title = runewidth.Truncate(title, max(width-2, 0), "…")
	if selected {
		return styleListSelected.Render("> " + title)
	}
	return styleListNormal.Render("  " + title)
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visible := max(listHeight, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visible {
		m.listOffset = m.cursor - visible + 1
	}
}
