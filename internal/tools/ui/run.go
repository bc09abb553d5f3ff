package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().Faint(true)
)

type doneMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	started time.Time
	details []string
	err     error
	done    bool
	action  func(context.Context) ([]string, error)
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		details, err := m.action(ctx)
		return doneMsg{details: details, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case doneMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	out := titleStyle.Render(m.title) + "\n"
	if !m.done {
		return out + "\nworking...\n"
	}
	elapsed := time.Since(m.started).Round(time.Millisecond)
	if m.err != nil {
		out += fmt.Sprintf("%s (%s): %v\n", failedStyle.Render("FAILED"), elapsed, m.err)
	} else {
		out += fmt.Sprintf("%s (%s)\n", okStyle.Render("OK"), elapsed)
	}
	for _, d := range m.details {
		out += detailStyle.Render("- "+d) + "\n"
	}
	return out
}

// Run executes the action inside a minimal terminal UI and returns its
// outcome once the program exits.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	m := model{title: title, started: time.Now(), action: action}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
