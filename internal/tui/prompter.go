// Package tui renders the installer's interactive surface: prompts,
// coloured narration and transfer progress. It implements the UI interfaces
// declared by internal/core.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

// Prompter asks questions through short-lived bubbletea programs, one per
// question. The answered question stays on screen as a single line.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

var _ core.Prompter = (*Prompter)(nil)

// NewPrompter creates a Prompter reading keys from in and drawing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// promptModel is a finished-or-cancelled question.
type promptModel interface {
	tea.Model
	cancelled() bool
}

func (p *Prompter) run(ctx context.Context, m promptModel) (tea.Model, error) {
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return nil, fmt.Errorf("%w: %w", core.ErrCancelled, err)
		}
		return nil, fmt.Errorf("running prompt: %w", err)
	}
	if pm, ok := final.(promptModel); ok && pm.cancelled() {
		return nil, core.ErrCancelled
	}
	return final, nil
}

// Select shows a list and returns the chosen option.
func (p *Prompter) Select(ctx context.Context, title string, options []core.Option, defaultIdx int) (core.Option, error) {
	if len(options) == 0 {
		return core.Option{}, fmt.Errorf("select %q: no options", title)
	}
	final, err := p.run(ctx, newSelectModel(title, options, defaultIdx))
	if err != nil {
		return core.Option{}, err
	}
	return final.(selectModel).selected(), nil
}

// Input asks for one line of text.
func (p *Prompter) Input(ctx context.Context, title, defaultValue string, validate func(string) error) (string, error) {
	final, err := p.run(ctx, newInputModel(title, defaultValue, validate))
	if err != nil {
		return "", err
	}
	return final.(inputModel).value, nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, title string, defaultYes bool) (bool, error) {
	final, err := p.run(ctx, newConfirmModel().show(title, defaultYes))
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}
