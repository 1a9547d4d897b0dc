package core

import (
	"context"
	"fmt"
	"sync"
)

// scriptedPrompter answers prompts from a fixed list, in order. Running out
// of answers cancels the prompt.
type scriptedPrompter struct {
	mu      sync.Mutex
	answers []string
	asked   []string
}

func newScriptedPrompter(answers ...string) *scriptedPrompter {
	return &scriptedPrompter{answers: answers}
}

func (p *scriptedPrompter) next(title string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, title)
	if len(p.answers) == 0 {
		return "", ErrCancelled
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Select(_ context.Context, title string, options []Option, _ int) (Option, error) {
	a, err := p.next(title)
	if err != nil {
		return Option{}, err
	}
	for _, o := range options {
		if o.Value == a {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("scripted answer %q is not an option of %q", a, title)
}

func (p *scriptedPrompter) Input(_ context.Context, title, defaultValue string, validate func(string) error) (string, error) {
	a, err := p.next(title)
	if err != nil {
		return "", err
	}
	if a == "" {
		a = defaultValue
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return "", err
		}
	}
	return a, nil
}

func (p *scriptedPrompter) Confirm(_ context.Context, title string, defaultYes bool) (bool, error) {
	a, err := p.next(title)
	if err != nil {
		return false, err
	}
	switch a {
	case "y":
		return true, nil
	case "n":
		return false, nil
	}
	return defaultYes, nil
}

// recordingReporter keeps every message for assertions.
type recordingReporter struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingReporter) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, level+": "+msg)
}

func (r *recordingReporter) Info(msg string)    { r.add("info", msg) }
func (r *recordingReporter) Warn(msg string)    { r.add("warn", msg) }
func (r *recordingReporter) Error(msg string)   { r.add("error", msg) }
func (r *recordingReporter) Success(msg string) { r.add("success", msg) }

func (r *recordingReporter) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}
