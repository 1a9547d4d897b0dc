package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

// selectModel is a single-choice list. The cursor starts on the default
// option and stops at both ends of the list.
type selectModel struct {
	title   string
	options []core.Option
	cursor  int

	chosen  bool
	aborted bool

	help help.Model
}

func newSelectModel(title string, options []core.Option, defaultIdx int) selectModel {
	if defaultIdx < 0 || defaultIdx >= len(options) {
		defaultIdx = 0
	}
	return selectModel{
		title:   title,
		options: options,
		cursor:  defaultIdx,
		help:    help.New(),
	}
}

// selected returns the option under the cursor.
func (m selectModel) selected() core.Option {
	if len(m.options) == 0 {
		return core.Option{}
	}
	return m.options[m.cursor]
}

func (m selectModel) update(msg tea.Msg) (selectModel, tea.Cmd, bool) {
	if m.chosen || m.aborted {
		return m, nil, false
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil, true

	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
		return m, nil, true

	case key.Matches(keyMsg, keys.Enter):
		if len(m.options) == 0 {
			return m, nil, true
		}
		m.chosen = true
		return m, tea.Quit, true

	case key.Matches(keyMsg, keys.Back), key.Matches(keyMsg, keys.Quit):
		m.aborted = true
		return m, tea.Quit, true
	}

	return m, nil, false
}

func (m selectModel) view() string {
	if m.chosen {
		return renderAnswered(m.title, m.selected().Label)
	}
	if m.aborted {
		return renderQuestion(m.title)
	}

	var b strings.Builder
	b.WriteString(renderQuestion(m.title))
	b.WriteString("\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("❯ " + opt.Label))
		} else {
			b.WriteString(normalItemStyle.Render("  " + opt.Label))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(selectHelpKeyMap{})))
	return b.String()
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, _ := m.update(msg)
	return m, cmd
}

func (m selectModel) View() string { return m.view() + "\n" }

func (m selectModel) cancelled() bool { return m.aborted }
