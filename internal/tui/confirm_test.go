package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewConfirmModel(t *testing.T) {
	m := newConfirmModel()
	if m.active {
		t.Error("new confirm should not be active")
	}
	if m.message != "" {
		t.Errorf("message = %q, want empty", m.message)
	}
}

func TestConfirmShow(t *testing.T) {
	m := newConfirmModel().show("是否立刻安装依赖?", true)

	if !m.active {
		t.Error("confirm should be active after show")
	}
	if m.message != "是否立刻安装依赖?" {
		t.Errorf("message = %q, want %q", m.message, "是否立刻安装依赖?")
	}
	if !m.focusYes {
		t.Error("focus should follow defaultYes = true")
	}
}

func TestConfirmShow_DefaultNo(t *testing.T) {
	m := newConfirmModel().show("Delete?", false)
	if m.focusYes {
		t.Error("focus should be on No when defaultYes = false")
	}
}

func TestConfirmUpdate_YesKey(t *testing.T) {
	for _, r := range []rune{'y', 'Y'} {
		m := newConfirmModel().show("Install?", false)
		m, cmd, consumed := m.update(runeKey(r))

		if !consumed {
			t.Errorf("%q should be consumed", string(r))
		}
		if m.active {
			t.Errorf("confirm should be dismissed after %q", string(r))
		}
		if !m.answered || !m.answer {
			t.Errorf("%q: answered = %v, answer = %v, want true/true", string(r), m.answered, m.answer)
		}
		if cmd == nil {
			t.Errorf("%q should return tea.Quit", string(r))
		}
	}
}

func TestConfirmUpdate_NoKey(t *testing.T) {
	for _, r := range []rune{'n', 'N'} {
		m := newConfirmModel().show("Install?", true)
		m, cmd, consumed := m.update(runeKey(r))

		if !consumed {
			t.Errorf("%q should be consumed", string(r))
		}
		if !m.answered || m.answer {
			t.Errorf("%q: answered = %v, answer = %v, want true/false", string(r), m.answered, m.answer)
		}
		if cmd == nil {
			t.Errorf("%q should return tea.Quit", string(r))
		}
	}
}

func TestConfirmUpdate_EscCancels(t *testing.T) {
	m := newConfirmModel().show("Install?", true)
	m, cmd, consumed := m.update(tea.KeyMsg{Type: tea.KeyEscape})

	if !consumed {
		t.Error("esc should be consumed")
	}
	if !m.cancelled() {
		t.Error("esc should cancel the question")
	}
	if m.answered {
		t.Error("cancelled question should not be answered")
	}
	if cmd == nil {
		t.Error("esc should return tea.Quit")
	}
}

func TestConfirmUpdate_CtrlCCancels(t *testing.T) {
	m := newConfirmModel().show("Install?", true)
	m, _, _ = m.update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.cancelled() {
		t.Error("ctrl+c should cancel the question")
	}
}

func TestConfirmUpdate_OtherKeysConsumed(t *testing.T) {
	m := newConfirmModel().show("Install?", true)

	for _, r := range []rune{'a', 'z', 'q', 'x', '1'} {
		m2, cmd, consumed := m.update(runeKey(r))
		if !consumed {
			t.Errorf("key %q should be consumed when confirm is active", string(r))
		}
		if !m2.active {
			t.Errorf("key %q should not close the question", string(r))
		}
		if cmd != nil {
			t.Errorf("key %q should return nil cmd", string(r))
		}
	}
}

func TestConfirmUpdate_InactiveIgnoresKeys(t *testing.T) {
	m := newConfirmModel()
	_, cmd, consumed := m.update(runeKey('y'))

	if consumed {
		t.Error("inactive confirm should not consume keys")
	}
	if cmd != nil {
		t.Error("inactive confirm should return nil cmd")
	}
}

func TestConfirmUpdate_NonKeyMsgIgnored(t *testing.T) {
	m := newConfirmModel().show("Install?", true)

	m2, cmd, consumed := m.update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if consumed {
		t.Error("non-key message should not be consumed")
	}
	if cmd != nil {
		t.Error("non-key message should return nil cmd")
	}
	if !m2.active {
		t.Error("confirm should remain active after non-key message")
	}
}

func TestConfirmUpdate_NavigationTogglesFocus(t *testing.T) {
	toggles := []tea.KeyMsg{
		{Type: tea.KeyTab},
		{Type: tea.KeyShiftTab},
		{Type: tea.KeyLeft},
		{Type: tea.KeyRight},
		runeKey('h'),
		runeKey('l'),
	}
	for _, k := range toggles {
		m := newConfirmModel().show("Install?", false)
		m, _, consumed := m.update(k)
		if !consumed {
			t.Errorf("%s should be consumed", k)
		}
		if !m.focusYes {
			t.Errorf("%s should toggle focus to Yes", k)
		}
		m, _, _ = m.update(k)
		if m.focusYes {
			t.Errorf("second %s should toggle focus back to No", k)
		}
	}
}

func TestConfirmUpdate_EnterAnswersFocused(t *testing.T) {
	m := newConfirmModel().show("Install?", true)
	m, cmd, consumed := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !consumed || cmd == nil {
		t.Fatal("enter should be consumed and quit")
	}
	if !m.answer {
		t.Error("enter on Yes should answer true")
	}

	m = newConfirmModel().show("Install?", true)
	m, _, _ = m.update(tea.KeyMsg{Type: tea.KeyTab})
	m, _, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.answer {
		t.Error("enter on No should answer false")
	}
}

func TestConfirmView_Active(t *testing.T) {
	m := newConfirmModel().show("是否立刻安装依赖?", true)
	v := m.view()

	if !strings.Contains(v, "是否立刻安装依赖?") {
		t.Errorf("view() = %q, should contain message text", v)
	}
	if !strings.Contains(v, "是") || !strings.Contains(v, "否") {
		t.Errorf("view() = %q, should contain both buttons", v)
	}
}

func TestConfirmView_Inactive(t *testing.T) {
	if v := newConfirmModel().view(); v != "" {
		t.Errorf("view() = %q, want empty when inactive", v)
	}
}

func TestConfirmView_Answered(t *testing.T) {
	m := newConfirmModel().show("Install?", true)
	m, _, _ = m.update(runeKey('n'))

	v := m.view()
	if !strings.Contains(v, "Install?") || !strings.Contains(v, "否") {
		t.Errorf("view() = %q, want question with the answer", v)
	}
}

func TestConfirmView_AfterCancel(t *testing.T) {
	m := newConfirmModel().show("Install?", true)
	m, _, _ = m.update(tea.KeyMsg{Type: tea.KeyEscape})
	if v := m.view(); v != "" {
		t.Errorf("view() = %q, want empty after cancel", v)
	}
}
