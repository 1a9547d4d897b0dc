package tui

import (
	"strings"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

// RenderCloneError formats a failed clone: the failure kind, the command
// that ran, git's output and the suggestions for the kind.
func RenderCloneError(ce *core.CloneError) string {
	if ce == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(errorStyle.Render(ce.Kind.String()))
	if ce.Source != "" {
		b.WriteString(mutedStyle.Render("  (" + ce.Source + ")"))
	}
	b.WriteString("\n\n")

	b.WriteString(mutedStyle.Render("  Command:"))
	b.WriteString("\n    ")
	b.WriteString(normalItemStyle.Render(ce.Command))
	b.WriteString("\n\n")

	b.WriteString(mutedStyle.Render("  Error:"))
	b.WriteString("\n")
	for _, line := range strings.Split(ce.Output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			b.WriteString("    ")
			b.WriteString(errorStyle.Render(line))
			b.WriteString("\n")
		}
	}

	if len(ce.Hints) > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  Suggestions:"))
		b.WriteString("\n")
		for _, hint := range ce.Hints {
			b.WriteString("    ")
			b.WriteString(hintBulletStyle.Render("*"))
			b.WriteString(" ")
			b.WriteString(normalItemStyle.Render(hint))
			b.WriteString("\n")
		}
	}
	return b.String()
}
