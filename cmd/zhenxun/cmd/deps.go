package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/logger"
	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/tui"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	config      *core.ConfigManager
	cfg         *core.Config
	log         *slog.Logger
	console     *tui.Console
	progress    *tui.Progress
	interactive bool
}

// newDeps creates shared dependencies. Called lazily by commands that need them.
func newDeps(cmd *cobra.Command) (*deps, error) {
	var config *core.ConfigManager
	if flagConfigDir != "" {
		config = core.NewConfigManagerWithDir(flagConfigDir)
	} else {
		var err error
		config, err = core.NewConfigManager()
		if err != nil {
			return nil, fmt.Errorf("initializing config: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", config.ConfigPath(), err)
	}

	interactive := tui.IsInteractive(os.Stdin) && tui.IsInteractive(os.Stdout)
	log := logger.New(cmd.ErrOrStderr(), flagVerbose)
	log.Debug("config loaded", "path", config.ConfigPath(), "repository", cfg.Repository, "interactive", interactive)

	return &deps{
		config:      config,
		cfg:         cfg,
		log:         log,
		console:     tui.NewConsole(cmd.OutOrStdout()),
		progress:    tui.NewProgress(cmd.OutOrStdout(), interactive),
		interactive: interactive,
	}, nil
}

// prompter returns the prompter for this run: preset answers first, then
// the terminal when there is one.
func (d *deps) prompter(presets map[string]preset) core.Prompter {
	p := &presetPrompter{presets: presets, echo: d.console}
	if d.interactive {
		p.fallback = tui.NewPrompter(os.Stdin, os.Stdout)
	}
	return p
}

// installer builds the core installer over the shared dependencies.
func (d *deps) installer(cmd *cobra.Command, prompter core.Prompter) (*core.Installer, error) {
	return core.NewInstaller(core.InstallerOptions{
		Config:   d.cfg,
		Prompter: prompter,
		Reporter: d.console,
		Progress: d.progress,
		Logger:   d.log,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
}

// printMarkdown writes md, rendered when stdout is a terminal.
func (d *deps) printMarkdown(cmd *cobra.Command, md string) {
	if d.interactive {
		rendered, err := tui.RenderMarkdown(md, tui.TerminalWidth(os.Stdout))
		if err != nil {
			d.log.Debug("rendering markdown failed", "error", err)
		}
		md = rendered
	}
	fmt.Fprint(cmd.OutOrStdout(), md)
}
