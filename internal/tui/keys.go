package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Next      key.Binding
	Copy      key.Binding
	Quit      key.Binding
	PreviewUp key.Binding
	PreviewDn key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("up/C-k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("dn/C-j", "down"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next section"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("C-y", "copy section"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
	PreviewUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "view up"),
	),
	PreviewDn: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "view down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "view pgup"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "view pgdn"),
	),
}
