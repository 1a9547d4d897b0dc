package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// CheckGit returns the output of `git --version`, or ErrGitMissing when git
// cannot be run.
func CheckGit(ctx context.Context, run commandRunner) (string, error) {
	if run == nil {
		run = runWithTimeout
	}
	out, err := run(ctx, "git", "--version")
	if err != nil || !strings.HasPrefix(strings.TrimSpace(out), "git version") {
		return "", fmt.Errorf("%w: %v", ErrGitMissing, errOrOutput(err, out))
	}
	return strings.TrimSpace(out), nil
}

// CloneCommand returns the shallow single-branch clone of src into dir.
// Credential prompts are disabled so a bad mirror fails instead of hanging.
func CloneCommand(src CloneSource, dir string) Command {
	return Command{
		Argv: []string{"git", "clone", "--depth=1", "--single-branch", src.URL, dir},
		Env:  append(os.Environ(), "GIT_TERMINAL_PROMPT=0"),
	}
}

func errOrOutput(err error, out string) any {
	if err != nil {
		return err
	}
	return strings.TrimSpace(out)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
