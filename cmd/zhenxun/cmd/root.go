package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/tui"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Global flags.
var (
	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "zhenxun",
	Short: "管理小真寻.",
	Long: `zhenxun installs and starts the zhenxun chat bot.

Run without a sub-command to pick an action from a menu.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMenu,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "zhenxun %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Write debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Configuration directory (default: $"+core.ConfigDirEnv+" or ~/.zhenxun)")
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

// menuCommands are offered by the bare command, in this order.
func menuCommands() []*cobra.Command {
	return []*cobra.Command{createCmd, runCmd, logoCmd}
}

// runMenu prints the logo and lets the user pick a sub-command.
func runMenu(cmd *cobra.Command, _ []string) error {
	fmt.Fprint(cmd.OutOrStdout(), tui.Logo())

	if !tui.IsInteractive(os.Stdin) || !tui.IsInteractive(os.Stdout) {
		return cmd.Help()
	}

	var options []core.Option
	for _, sub := range menuCommands() {
		options = append(options, core.Option{Label: sub.Short, Value: sub.Name()})
	}

	choice, err := tui.NewPrompter(os.Stdin, os.Stdout).Select(cmd.Context(), "你想要进行什么操作?", options, 0)
	if errors.Is(err, core.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, sub := range menuCommands() {
		if sub.Name() == choice.Value {
			sub.SetContext(cmd.Context())
			return sub.RunE(sub, nil)
		}
	}
	return fmt.Errorf("unknown command %q", choice.Value)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
