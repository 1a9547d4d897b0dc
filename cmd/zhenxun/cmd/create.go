package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/core"
	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/tui"
)

var createCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"new", "init"},
	Short:   "在当前目录下安装小真寻.",
	Long: `Install the zhenxun bot into a new directory below the current one.

The project is either cloned with git or downloaded as an archive from the
fastest mirror. Afterwards .env.dev is configured and, if wanted, poetry and
the project dependencies are installed.

Every question can be answered with a flag. Questions without a flag are
asked interactively; without a terminal they are an error:
  --method download --name mybot --superusers "123 456" --install-deps=false`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, _ []string) error {
	ctx, stop := core.ShutdownContext(cmd.Context())
	defer stop()

	d, err := newDeps(cmd)
	if err != nil {
		return err
	}

	installer, err := d.installer(cmd, d.prompter(createPresets(cmd)))
	if err != nil {
		return err
	}

	python, _ := cmd.Flags().GetString("python-interpreter")
	indexURL, _ := cmd.Flags().GetString("index-url")

	res, err := installer.Create(ctx, core.CreateOptions{
		Python:   python,
		IndexURL: indexURL,
	})
	if err != nil {
		var ce *core.CloneError
		if errors.As(err, &ce) {
			fmt.Fprint(cmd.ErrOrStderr(), tui.RenderCloneError(ce))
		}
		return err
	}

	d.console.Success(fmt.Sprintf("小真寻安装完成！Path: %s", res.Installation.Path))
	d.printMarkdown(cmd, core.NextSteps(res.Installation.Name, res.DepsInstalled))
	return nil
}

// createFlags maps each preset flag to the question it answers.
var createFlags = []struct {
	flag   string
	prompt string
}{
	{"method", core.PromptInstallMethod},
	{"name", core.PromptProjectName},
	{"on-conflict", core.PromptConflict},
	{"rename-to", core.PromptRenameProject},
	{"clone-url", core.PromptCloneSource},
	{"superusers", core.PromptSuperusers},
	{"db-url", core.PromptDBURL},
}

// createPresets collects the answers given as flags. Only flags set on the
// command line become answers.
func createPresets(cmd *cobra.Command) map[string]preset {
	presets := make(map[string]preset)
	for _, f := range createFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.flag)
		presets[f.prompt] = preset{flag: f.flag, value: v}
	}
	if cmd.Flags().Changed("install-deps") {
		v, _ := cmd.Flags().GetBool("install-deps")
		presets[core.PromptInstallDeps] = preset{flag: "install-deps", value: strconv.FormatBool(v)}
	}
	return presets
}

func init() {
	createCmd.Flags().StringP("python-interpreter", "p", "", "Python interpreter (default: active virtualenv, python3, python)")
	createCmd.Flags().StringP("index-url", "i", "", "pip index used to install poetry (default: "+core.DefaultIndexURL+")")
	createCmd.Flags().String("method", "", "Install method: git or download")
	createCmd.Flags().String("name", "", "Project directory name; append "+core.ReuseSuffix+" to reuse an existing one")
	createCmd.Flags().String("on-conflict", "", "When the directory exists: delete, rename or exit")
	createCmd.Flags().String("rename-to", "", "New project name used with --on-conflict rename")
	createCmd.Flags().String("clone-url", "", "Clone source name or URL from the configured list")
	createCmd.Flags().String("superusers", "", "Space separated superuser account ids")
	createCmd.Flags().String("db-url", "", "Database URL (empty: bundled sqlite)")
	createCmd.Flags().Bool("install-deps", true, "Install poetry and the project dependencies")
	rootCmd.AddCommand(createCmd)
}
