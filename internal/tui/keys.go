package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keybindings shared by the prompts.
type keyMap struct {
	Quit  key.Binding
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k/up", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/down", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// ---------------------------------------------------------------------------
// Per-prompt help keymaps for the help.Model component.
// Each implements help.KeyMap (ShortHelp + FullHelp).
// ---------------------------------------------------------------------------

// selectHelpKeyMap is shown under a select list.
type selectHelpKeyMap struct{}

func (k selectHelpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Up, keys.Down, keys.Enter, keys.Back}
}

func (k selectHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// inputHelpKeyMap is shown under a text input.
type inputHelpKeyMap struct{}

func (k inputHelpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		keys.Back,
	}
}

func (k inputHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// confirmHelpKeyMap is shown under a yes/no question.
type confirmHelpKeyMap struct{}

func (k confirmHelpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{confirmYesKey, confirmNoKey, keys.Enter, keys.Back}
}

func (k confirmHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
