package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/voyager/internal/render"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

const debounceDelay = 200 * time.Millisecond

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

// message types

type debounceTickMsg struct {
	filter string
}

// model

type model struct {
	stats       *stats.Stats
	title       string
	sections    []render.Section
	filter      string
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // section:filter:width currently shown
	note        string // transient status message
	width       int
	height      int
	ready       bool
	quitting    bool
}

func initialModel(s *stats.Stats, title string) model {
	ti := textinput.New()
	ti.Placeholder = "Filter channels and words..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		stats:       s,
		title:       title,
		sections:    render.Sections,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Browse starts the stats browser and blocks until it exits.
func Browse(s *stats.Stats, title string) error {
	p := tea.NewProgram(initialModel(s, title), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init triggers the first section render.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCurrentSection())
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		return m, m.loadCurrentSection()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			m.note = m.copyCurrentSection()
			return m, nil

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentSection())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.sections)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentSection())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Next):
			if len(m.sections) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sections)
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentSection())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// Pass remaining keys to text input
		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if v := m.filterInput.Value(); v != m.filter {
			m.filter = v
			cmds = append(cmds, scheduleDebouncedFilter(v))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.sections) && m.cursor != itemIdx {
				m.cursor = itemIdx
				cmds = append(cmds, m.loadCurrentSection())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			if vpCmd != nil {
				cmds = append(cmds, vpCmd)
			}
			return m, tea.Batch(cmds...)
		}

		return m, nil

	case debounceTickMsg:
		// Only re-render if the filter hasn't changed since the tick was scheduled
		if msg.filter == m.filter {
			cmds = append(cmds, m.loadCurrentSection())
		}
		return m, tea.Batch(cmds...)

	case sectionRenderedMsg:
		if msg.key != m.wantKey() {
			return m, nil // stale render
		}
		if msg.key != m.previewKey {
			m.preview.SetContent(msg.content)
			m.preview.GotoTop()
			m.previewKey = msg.key
		}
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	header := lipgloss.JoinHorizontal(lipgloss.Top, styleTitle.Render(m.title+"  "), m.filterInput.View())

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 28
	}
	// 30% for the menu, minus border padding
	return max(m.width*30/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 72
	}
	// 70% for the section view, minus border padding
	return max(m.width*70/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract header row (1) + status bar (1) + borders (4)
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // header row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY
	}

	if x > listBoxRight+1 {
		return regionPreview, -1
	}

	return regionNone, -1
}

func (m model) statusBar() string {
	var parts []string
	if m.note != "" {
		parts = append(parts, styleStatusNote.Render(m.note))
	}
	if m.filter != "" {
		parts = append(parts, fmt.Sprintf("filter %q", m.filter))
	}
	parts = append(parts, "up/dn/tab section")
	parts = append(parts, "scroll/C-u/C-d view")
	parts = append(parts, "C-y copy")
	parts = append(parts, "Esc quit")
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) current() (render.Section, bool) {
	if m.cursor < 0 || m.cursor >= len(m.sections) {
		return render.Section{}, false
	}
	return m.sections[m.cursor], true
}

func (m model) wantKey() string {
	sec, ok := m.current()
	if !ok {
		return ""
	}
	return viewKey(sec.Key, m.filter, m.previewWidth())
}

func (m model) loadCurrentSection() tea.Cmd {
	sec, ok := m.current()
	if !ok || m.wantKey() == m.previewKey {
		return nil
	}
	return renderSectionCmd(m.stats, sec, m.filter, m.previewWidth())
}

// copyCurrentSection puts the plain-text section on the clipboard and
// returns a status note.
func (m model) copyCurrentSection() string {
	sec, ok := m.current()
	if !ok {
		return ""
	}
	if err := copyToClipboard(sec.Render(m.stats, render.Options{Filter: m.filter})); err != nil {
		return "copy failed: " + err.Error()
	}
	return "copied " + sec.Title
}

func scheduleDebouncedFilter(filter string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{filter: filter}
	})
}

func viewKey(section, filter string, width int) string {
	return fmt.Sprintf("%s:%s:%d", section, filter, width)
}
