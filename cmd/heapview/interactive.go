package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	paneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type heapModel struct {
	err    error
	insp   *inspector
	result string
	input  textinput.Model
}

func newHeapModel(insp *inspector) *heapModel {
	ti := textinput.New()
	ti.Placeholder = "Cons(1, Cons(2, Nil))"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return &heapModel{insp: insp, input: ti}
}

func (m *heapModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *heapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			m.result, m.err = "", nil
			switch line {
			case "":
			case "q", "quit":
				return m, tea.Quit
			case "gc":
				m.insp.collect()
				m.result = "collection forced"
			case "drop":
				if expr, ok := m.insp.drop(); ok {
					m.result = "dropped " + expr
				} else {
					m.err = fmt.Errorf("nothing to drop")
				}
			default:
				out, err := m.insp.build(line)
				if err != nil {
					m.err = err
				} else {
					m.result = out
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *heapModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("camlgate heap inspector"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.result != "":
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(paneStyle.Render(m.insp.heapPane()))
	b.WriteString("\n")
	b.WriteString(paneStyle.Render(m.insp.rootsPane()))
	b.WriteString("\n")
	b.WriteString(m.insp.statsLine())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter build • gc collect • drop release last • q quit"))

	return b.String()
}
