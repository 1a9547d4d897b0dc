package main

import (
	"os"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/cmd/zhenxun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ReportError(os.Stderr, err))
	}
}
