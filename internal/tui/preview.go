package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/voyager/internal/render"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

// sectionRenderedMsg is sent when an async section render completes.
type sectionRenderedMsg struct {
	key     string
	content string
}

// renderSectionCmd returns a tea.Cmd that renders a section for the viewport.
func renderSectionCmd(s *stats.Stats, sec render.Section, filter string, width int) tea.Cmd {
	key := viewKey(sec.Key, filter, width)
	return func() tea.Msg {
		return sectionRenderedMsg{
			key:     key,
			content: sec.Render(s, render.Options{Width: width, Filter: filter}),
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
