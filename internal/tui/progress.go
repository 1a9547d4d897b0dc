package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

const (
	progressBarWidth = 30
	progressNameMax  = 28
	redrawInterval   = 100 * time.Millisecond
)

// Progress draws one status line per transfer. On a terminal the line is
// redrawn in place with a bar, or with a spinner when the size is unknown.
// Otherwise a single summary line is written when the transfer ends.
type Progress struct {
	w           io.Writer
	interactive bool
}

var _ core.ProgressSink = (*Progress)(nil)

// NewProgress creates a sink writing to w.
func NewProgress(w io.Writer, interactive bool) *Progress {
	return &Progress{w: w, interactive: interactive}
}

// Start begins drawing a transfer.
func (p *Progress) Start(name string, total int64) core.ProgressTracker {
	t := &transfer{
		w:           p.w,
		interactive: p.interactive,
		name:        ansi.Truncate(name, progressNameMax, "…"),
		total:       total,
		started:     time.Now(),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(progressBarWidth),
			progress.WithoutPercentage(),
		),
		frames:   spinner.Dot.Frames,
		throttle: rate.Sometimes{Interval: redrawInterval},
	}
	if t.interactive {
		t.throttle.Do(t.draw)
	}
	return t
}

type transfer struct {
	w           io.Writer
	interactive bool
	name        string
	total       int64
	started     time.Time

	mu       sync.Mutex
	done     int64
	frame    int
	finished bool

	bar      progress.Model
	frames   []string
	throttle rate.Sometimes
}

func (t *transfer) Update(done int64) {
	t.mu.Lock()
	t.done = done
	t.mu.Unlock()
	if t.interactive {
		t.throttle.Do(t.draw)
	}
}

func (t *transfer) Finish(err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.mu.Unlock()

	if t.interactive {
		t.draw()
		_, _ = fmt.Fprintln(t.w)
	}
	if err != nil {
		_, _ = fmt.Fprintln(t.w, errorStyle.Render(fmt.Sprintf("✗ %s: %v", t.name, err)))
		return
	}
	if !t.interactive {
		_, _ = fmt.Fprintln(t.w, t.summary())
	}
}

// draw rewrites the current terminal line.
func (t *transfer) draw() {
	_, _ = fmt.Fprint(t.w, "\r"+ansi.EraseEntireLine+t.line())
}

func (t *transfer) line() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.total > 0 {
		pct := float64(t.done) / float64(t.total)
		if pct > 1 {
			pct = 1
		}
		return fmt.Sprintf("%s %s %3.0f%% %s",
			t.name,
			t.bar.ViewAs(pct),
			pct*100,
			mutedStyle.Render(humanize.IBytes(uint64(t.done))+" / "+humanize.IBytes(uint64(t.total))),
		)
	}

	frame := ""
	if len(t.frames) > 0 {
		frame = t.frames[t.frame%len(t.frames)]
		t.frame++
	}
	return fmt.Sprintf("%s %s %s",
		spinnerStyle.Render(frame),
		t.name,
		mutedStyle.Render(humanize.IBytes(uint64(t.done))),
	)
}

// summary is the single line written for non-interactive output.
func (t *transfer) summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.started).Round(time.Millisecond)
	return fmt.Sprintf("%s %s (%s)", t.name, humanize.IBytes(uint64(t.done)), elapsed)
}
