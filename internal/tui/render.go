package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrapWidth = 80

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or 80 when it is not a terminal.
func TerminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWrapWidth
	}
	return w
}

// RenderMarkdown renders md for a terminal of the given width. On failure
// the raw markdown is returned with the error.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = defaultWrapWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md, err
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md, err
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// logo is printed by `zhenxun logo` and the bare command.
const logo = `
 ______  _   _  ______  _   _  __   __ _   _  _   _
|___  / | | | ||  ____|| \ | | \ \ / /| | | || \ | |
   / /  | |_| || |__   |  \| |  \ V / | | | ||  \| |
  / /   |  _  ||  __|  | . ` + "`" + ` |   > <  | | | || . ` + "`" + ` |
 / /__  | | | || |____ | |\  |  / . \ | |_| || |\  |
/_____| |_| |_||______||_| \_| /_/ \_\ \___/ |_| \_|
`

// Welcome is the line printed under the logo.
const Welcome = "欢迎来到小真寻的安装工具!"

// Logo returns the styled logo followed by the welcome line.
func Logo() string {
	return logoStyle.Render(strings.Trim(logo, "\n")) + "\n" + logoStyle.Render(Welcome) + "\n"
}
