package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// probeCommandTimeout bounds short version probes such as `git --version`.
const probeCommandTimeout = 15 * time.Second

// commandRunner runs a short-lived command and returns its combined output.
// Tests replace it to fake git and python.
type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// runWithTimeout runs a command with a timeout and returns its combined
// output. It is meant for quick probes, not for the long-running children
// managed through Spawn.
func runWithTimeout(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(output), fmt.Errorf("%s timed out after %s", name, probeCommandTimeout)
	}
	return strings.TrimSpace(string(output)), err
}

// dirExists returns true if the path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
