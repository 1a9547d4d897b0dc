package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// inputModel is a single-line text question. An empty submission takes the
// default value. When validate rejects the value the error is shown under
// the field and the prompt stays open.
type inputModel struct {
	title        string
	defaultValue string
	validate     func(string) error

	input  textinput.Model
	errMsg string
	value  string

	submitted bool
	aborted   bool

	help help.Model
}

func newInputModel(title, defaultValue string, validate func(string) error) inputModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = defaultValue
	ti.CharLimit = 512
	ti.Focus()

	return inputModel{
		title:        title,
		defaultValue: defaultValue,
		validate:     validate,
		input:        ti,
		help:         help.New(),
	}
}

// submit validates the current text. It reports whether the prompt closed.
func (m inputModel) submit() (inputModel, bool) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		value = m.defaultValue
	}
	if m.validate != nil {
		if err := m.validate(value); err != nil {
			m.errMsg = err.Error()
			return m, false
		}
	}
	m.errMsg = ""
	m.value = value
	m.submitted = true
	return m, true
}

func (m inputModel) update(msg tea.Msg) (inputModel, tea.Cmd, bool) {
	if m.submitted || m.aborted {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.Enter):
			m, done := m.submit()
			if done {
				return m, tea.Quit, true
			}
			return m, nil, true

		case key.Matches(keyMsg, keys.Back), key.Matches(keyMsg, keys.Quit):
			m.aborted = true
			return m, tea.Quit, true
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, true
}

func (m inputModel) view() string {
	if m.submitted {
		return renderAnswered(m.title, m.value)
	}
	if m.aborted {
		return renderQuestion(m.title)
	}

	lines := []string{renderQuestion(m.title), m.input.View()}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render("✗ "+m.errMsg))
	}
	lines = append(lines, helpStyle.Render(m.help.View(inputHelpKeyMap{})))
	return strings.Join(lines, "\n")
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, _ := m.update(msg)
	return m, cmd
}

func (m inputModel) View() string { return m.view() + "\n" }

func (m inputModel) cancelled() bool { return m.aborted }
