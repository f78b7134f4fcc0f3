// Package list implements a simple bubbletea list component to browse trace events.
package list

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.followtheprocess.codes/asyncctx/internal/runner"
	"go.followtheprocess.codes/asyncctx/internal/tui/theme"
)

// Model is the list tea Model.
type Model struct {
	l list.Model // The base list bubble
}

// New returns a new [Model].
func New(title string, events []runner.Event) Model {
	items := make([]list.Item, 0, len(events))
	for _, event := range events {
		items = append(items, event)
	}

	palette := theme.CatpuccinMacchiato

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(palette.Mauve).
		BorderLeftForeground(palette.Mauve)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(palette.Lavender).
		BorderLeftForeground(palette.Mauve)

	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.Styles.Title = lipgloss.NewStyle().
		Background(palette.Surface0).
		Foreground(palette.Text).
		Padding(0, 1)

	return Model{
		l: l,
	}
}

// Init helps implement [tea.Model] for [Model].
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates the UI in response to messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "enter":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.l.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd

	m.l, cmd = m.l.Update(msg)

	return m, cmd
}

// View renders the UI to the user.
func (m Model) View() string {
	return m.l.View()
}
