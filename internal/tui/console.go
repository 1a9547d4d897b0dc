package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

// Console writes narration lines coloured by level. Colours are dropped when
// w is not a terminal.
type Console struct {
	mu sync.Mutex
	w  io.Writer

	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	success lipgloss.Style
}

var _ core.Reporter = (*Console)(nil)

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		info:    r.NewStyle().Foreground(colorInfo),
		warn:    r.NewStyle().Foreground(colorWarning),
		err:     r.NewStyle().Foreground(colorDanger),
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
	}
}

func (c *Console) Info(msg string)    { c.println(c.info, msg) }
func (c *Console) Warn(msg string)    { c.println(c.warn, msg) }
func (c *Console) Error(msg string)   { c.println(c.err, msg) }
func (c *Console) Success(msg string) { c.println(c.success, msg) }

// Println writes msg without styling.
func (c *Console) Println(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, msg)
}

func (c *Console) println(style lipgloss.Style, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, style.Render(msg))
}
