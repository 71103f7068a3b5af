package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/Zuo-Peng/voyager/internal/analyze"
)

type totalMsg int

type advanceMsg struct{}

type workDoneMsg struct {
	err error
}

// progressModel shows "done of total sources" while the pipeline runs.
type progressModel struct {
	title    string
	bar      progress.Model
	total    int
	done     int
	err      error
	finished bool
	over     bool
}

func newProgressModel(title string) progressModel {
	return progressModel{
		title: title,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-4, 80), 10)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.over = true
			return m, tea.Quit
		}
	case totalMsg:
		m.total = int(msg)
	case advanceMsg:
		m.done++
	case workDoneMsg:
		m.err = msg.err
		m.finished = true
		m.over = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m progressModel) View() string {
	if m.over {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.percent()))
	fmt.Fprintf(&b, "\n%s of %s message logs\n", humanize.Comma(int64(m.done)), humanize.Comma(int64(m.total)))
	return b.String()
}

// programProgress forwards pipeline progress into a running program.
type programProgress struct {
	send func(tea.Msg)
}

func (p programProgress) SetTotal(n int) { p.send(totalMsg(n)) }
func (p programProgress) Advance()       { p.send(advanceMsg{}) }

// ErrInterrupted is returned when the user aborts a progress display.
var ErrInterrupted = errors.New("interrupted")

// RunWithProgress runs work while drawing a progress bar fed by the
// analyze.Progress it receives. The bar is drawn on stderr; Ctrl+C cancels
// the context passed to work.
func RunWithProgress(ctx context.Context, title string, work func(context.Context, analyze.Progress) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title), tea.WithOutput(os.Stderr))
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := work(ctx, programProgress{send: p.Send})
		p.Send(workDoneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return fmt.Errorf("tui: %w", err)
	}
	if fm := final.(progressModel); fm.finished {
		<-done
		return fm.err
	}
	cancel()
	<-done
	return ErrInterrupted
}
