package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"start"},
	Short:   "启动小真寻.",
	Long: `Start an installed bot with poetry.

Interrupt and terminate signals are passed on to the bot's process group;
the bot gets a grace period to shut down before it is killed. The command
exits with the bot's exit code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		installer, err := d.installer(cmd, d.prompter(nil))
		if err != nil {
			return err
		}

		dir, err := resolveTargetDir(cmd)
		if err != nil {
			return err
		}
		python, _ := cmd.Flags().GetString("python-interpreter")

		res, err := installer.Run(cmd.Context(), core.RunBotOptions{Dir: dir, Python: python})
		if err != nil {
			return err
		}
		if res.Terminated {
			d.log.Debug("bot stopped", "signal", res.Signal, "exit_code", res.ExitCode)
			d.console.Info("小真寻已停止")
			return nil
		}
		if res.ExitCode != 0 {
			return &core.ExitError{Command: "bot.py", Code: res.ExitCode}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringP("cwd", "d", ".", "Bot directory")
	runCmd.Flags().StringP("python-interpreter", "p", "", "Python interpreter (default: active virtualenv, python3, python)")
	rootCmd.AddCommand(runCmd)
}
