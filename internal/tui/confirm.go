package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// confirmModel is a yes/no question rendered inline with two buttons.
//
// Navigation: left/right/tab/shift+tab move focus between the buttons.
// Enter answers with the focused button. y/n are shortcut accelerators,
// esc and ctrl+c cancel.
type confirmModel struct {
	active   bool
	message  string
	focusYes bool // true = Yes focused, false = No focused.

	answered bool
	answer   bool
	aborted  bool

	help help.Model
}

func newConfirmModel() confirmModel {
	return confirmModel{help: help.New()}
}

// show activates the question. Focus starts on the default answer.
func (m confirmModel) show(message string, defaultYes bool) confirmModel {
	m.active = true
	m.message = message
	m.focusYes = defaultYes
	m.answered = false
	m.aborted = false
	return m
}

// dismiss deactivates the question and keeps its outcome.
func (m confirmModel) dismiss() confirmModel {
	m.active = false
	return m
}

func (m confirmModel) respond(yes bool) (confirmModel, tea.Cmd) {
	m.answered = true
	m.answer = yes
	return m.dismiss(), tea.Quit
}

func (m confirmModel) cancel() (confirmModel, tea.Cmd) {
	m.aborted = true
	return m.dismiss(), tea.Quit
}

// update handles key input while the question is active.
// Returns the updated model, any commands to run, and whether the message was consumed.
func (m confirmModel) update(msg tea.Msg) (confirmModel, tea.Cmd, bool) {
	if !m.active {
		return m, nil, false
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}

	switch {
	case key.Matches(keyMsg, confirmYesKey):
		m, cmd := m.respond(true)
		return m, cmd, true

	case key.Matches(keyMsg, confirmNoKey):
		m, cmd := m.respond(false)
		return m, cmd, true

	case key.Matches(keyMsg, keys.Back), key.Matches(keyMsg, keys.Quit):
		m, cmd := m.cancel()
		return m, cmd, true

	case key.Matches(keyMsg, keys.Enter):
		m, cmd := m.respond(m.focusYes)
		return m, cmd, true

	case key.Matches(keyMsg, confirmLeft), key.Matches(keyMsg, confirmRight),
		key.Matches(keyMsg, confirmTab), key.Matches(keyMsg, confirmShiftTab):
		m.focusYes = !m.focusYes
		return m, nil, true
	}

	return m, nil, true
}

// view renders the question with Yes / No buttons, or the answered line
// once the question is closed.
func (m confirmModel) view() string {
	if !m.active {
		if m.answered {
			answer := "否"
			if m.answer {
				answer = "是"
			}
			return renderAnswered(m.message, answer)
		}
		return ""
	}

	var yesBtn, noBtn string
	if m.focusYes {
		yesBtn = dialogActiveButtonStyle.Render("是")
		noBtn = dialogButtonStyle.Render("否")
	} else {
		yesBtn = dialogButtonStyle.Render("是")
		noBtn = dialogActiveButtonStyle.Render("否")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yesBtn, "  ", noBtn)
	return lipgloss.JoinVertical(lipgloss.Left,
		renderQuestion(m.message),
		"  "+buttons,
		helpStyle.Render(m.help.View(confirmHelpKeyMap{})),
	)
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, _ := m.update(msg)
	return m, cmd
}

func (m confirmModel) View() string { return m.view() + "\n" }

func (m confirmModel) cancelled() bool { return m.aborted }

// Key bindings for the confirm prompt (not part of the global keyMap).
var (
	confirmYesKey = key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	)
	confirmNoKey = key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	)
	confirmLeft = key.NewBinding(
		key.WithKeys("left", "h"),
	)
	confirmRight = key.NewBinding(
		key.WithKeys("right", "l"),
	)
	confirmTab = key.NewBinding(
		key.WithKeys("tab"),
	)
	confirmShiftTab = key.NewBinding(
		key.WithKeys("shift+tab"),
	)
)
