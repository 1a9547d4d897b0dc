package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

// resolveTargetDir resolves the --cwd flag or falls back to cwd.
func resolveTargetDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("cwd")
	if dir != "" && dir != "." {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// ReportError prints err to w and returns the process exit code for it.
// A cancelled prompt or an interrupted child prints a short notice; a
// failed child passes its exit code through.
func ReportError(w io.Writer, err error) int {
	if errors.Is(err, core.ErrCancelled) || errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "cancelled")
		return 1
	}

	fmt.Fprintf(w, "Error: %v\n", err)

	var exitErr *core.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 && exitErr.Code < 256 {
		return exitErr.Code
	}
	return 1
}
