package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

// preset is an answer given on the command line.
type preset struct {
	flag  string
	value string
}

// echoer prints the answered question for preset answers.
type echoer interface {
	Println(msg string)
}

// presetPrompter answers questions from flags and hands everything else to
// fallback. Each preset answers its question once, so a repeated question
// (a second directory conflict after a rename) goes to the fallback. Without
// a fallback an unanswered question is an error naming the flag to use.
type presetPrompter struct {
	presets  map[string]preset
	fallback core.Prompter
	echo     echoer
}

var _ core.Prompter = (*presetPrompter)(nil)

// flagsByPrompt names the flag that answers each question.
var flagsByPrompt = map[string]string{
	core.PromptInstallMethod: "method",
	core.PromptProjectName:   "name",
	core.PromptConflict:      "on-conflict",
	core.PromptRenameProject: "rename-to",
	core.PromptCloneSource:   "clone-url",
	core.PromptSuperusers:    "superusers",
	core.PromptDBURL:         "db-url",
	core.PromptInstallDeps:   "install-deps",
}

func (p *presetPrompter) lookup(title string) (preset, bool) {
	a, ok := p.presets[title]
	if ok {
		delete(p.presets, title)
	}
	return a, ok
}

func (p *presetPrompter) missing(title string) error {
	if name, ok := flagsByPrompt[title]; ok {
		return fmt.Errorf("%s: no answer given and stdin is not a terminal (use --%s)", title, name)
	}
	return fmt.Errorf("%s: no answer given and stdin is not a terminal", title)
}

func (p *presetPrompter) answered(title, answer string) {
	if p.echo != nil {
		p.echo.Println("? " + title + " " + answer)
	}
}

func (p *presetPrompter) Select(ctx context.Context, title string, options []core.Option, defaultIdx int) (core.Option, error) {
	a, ok := p.lookup(title)
	if !ok {
		if p.fallback == nil {
			return core.Option{}, p.missing(title)
		}
		return p.fallback.Select(ctx, title, options, defaultIdx)
	}

	valid := make([]string, 0, len(options))
	for _, opt := range options {
		if opt.Value == a.value || opt.Label == a.value {
			p.answered(title, opt.Label)
			return opt, nil
		}
		valid = append(valid, opt.Value)
	}
	return core.Option{}, fmt.Errorf("invalid --%s %q (want one of %s)", a.flag, a.value, strings.Join(valid, ", "))
}

func (p *presetPrompter) Input(ctx context.Context, title, defaultValue string, validate func(string) error) (string, error) {
	a, ok := p.lookup(title)
	if !ok {
		if p.fallback == nil {
			return "", p.missing(title)
		}
		return p.fallback.Input(ctx, title, defaultValue, validate)
	}

	value := strings.TrimSpace(a.value)
	if value == "" {
		value = defaultValue
	}
	if validate != nil {
		if err := validate(value); err != nil {
			return "", fmt.Errorf("invalid --%s %q: %w", a.flag, a.value, err)
		}
	}
	p.answered(title, value)
	return value, nil
}

func (p *presetPrompter) Confirm(ctx context.Context, title string, defaultYes bool) (bool, error) {
	a, ok := p.lookup(title)
	if !ok {
		if p.fallback == nil {
			return false, p.missing(title)
		}
		return p.fallback.Confirm(ctx, title, defaultYes)
	}

	yes, err := strconv.ParseBool(a.value)
	if err != nil {
		return false, fmt.Errorf("invalid --%s %q: want true or false", a.flag, a.value)
	}
	answer := "否"
	if yes {
		answer = "是"
	}
	p.answered(title, answer)
	return yes, nil
}
