package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/tui"
)

var logoCmd = &cobra.Command{
	Use:     "logo",
	Aliases: []string{"show"},
	Short:   "展示小真寻的LOGO.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), tui.Logo())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoCmd)
}
