package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/logger"
)

const (
	tmpDirName      = "tmp"
	archiveFileName = "download_latest_file.zip"
	cloneOutputTail = 4096
)

// InstallerOptions wires an Installer. Nil fields select defaults.
type InstallerOptions struct {
	Config     *Config
	Prompter   Prompter
	Reporter   Reporter
	Progress   ProgressSink
	Logger     *slog.Logger
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

// Installer drives the create and run flows.
type Installer struct {
	cfg      *Config
	prompter Prompter
	reporter Reporter
	progress ProgressSink
	log      *slog.Logger
	stdout   io.Writer
	stderr   io.Writer

	locator *SourceLocator
	fetcher *Fetcher

	probe    commandRunner
	runChild func(context.Context, Command) (int, error)
}

// NewInstaller creates an Installer.
func NewInstaller(opts InstallerOptions) (*Installer, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if opts.Prompter == nil {
		return nil, fmt.Errorf("installer: prompter is required")
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter
	}
	progress := opts.Progress
	if progress == nil {
		progress = NopProgress
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	client := opts.HTTPClient
	if client == nil {
		var err error
		client, err = NewHTTPClient(ClientOptions{
			UseProxy: true,
			Proxy:    cfg.Proxy,
			Timeout:  cfg.DownloadTimeout(),
		})
		if err != nil {
			return nil, err
		}
	}

	resolver := NewMirrorResolver(client, reporter, log)
	return &Installer{
		cfg:      cfg,
		prompter: opts.Prompter,
		reporter: reporter,
		progress: progress,
		log:      log,
		stdout:   stdout,
		stderr:   stderr,
		locator:  NewSourceLocator(cfg, client, resolver, log),
		fetcher:  NewFetcher(reporter, log),
		probe:    runWithTimeout,
		runChild: runChild,
	}, nil
}

// CreateOptions configures Installer.Create.
type CreateOptions struct {
	// WorkDir is where the project directory is created. Empty means ".".
	WorkDir string
	// Python is the interpreter used for the version check and dependency
	// install. Empty selects DefaultPython.
	Python string
	// IndexURL is passed to pip when installing poetry. Empty selects the
	// configured index.
	IndexURL string
}

// CreateResult describes a finished create flow.
type CreateResult struct {
	Installation  Installation
	Env           *EnvResult
	DepsInstalled bool
}

var installMethodOptions = []Option{
	{Label: "git安装", Value: string(InstallMethodGit)},
	{Label: "下载安装", Value: string(InstallMethodDownload)},
}

// Create installs the bot below opts.WorkDir. Every prompt cancellation
// returns ErrCancelled; children started on the way have exited by the time
// Create returns.
func (in *Installer) Create(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	python := opts.Python
	if python == "" {
		python = DefaultPython()
	}
	indexURL := opts.IndexURL
	if indexURL == "" {
		indexURL = in.cfg.IndexURL
	}

	in.reporter.Info("正在检测python版本...")
	version, err := CheckPython(ctx, in.probe, python)
	if err != nil {
		if errors.Is(err, ErrPythonTooOld) {
			in.reporter.Warn(fmt.Sprintf("当前python版本过低，python版本至少需要%d.%d及以上！", MinPythonMajor, MinPythonMinor))
		}
		return nil, err
	}
	in.log.Debug("python found", "python", python, "version", version.String())

	choice, err := in.prompter.Select(ctx, PromptInstallMethod, installMethodOptions, 0)
	if err != nil {
		return nil, err
	}
	method, err := ParseInstallMethod(choice.Value)
	if err != nil {
		return nil, err
	}
	if method == InstallMethodGit {
		gitVersion, err := CheckGit(ctx, in.probe)
		if err != nil {
			in.reporter.Warn("未检测到git，请先安装git...")
			return nil, err
		}
		in.log.Debug("git found", "version", gitVersion)
	}

	rawName, err := in.prompter.Input(ctx, PromptProjectName, DefaultProjectName, ValidateProjectName)
	if err != nil {
		return nil, err
	}
	name, reuse := SplitReuse(rawName)

	if !reuse {
		name, err = ResolveProjectDir(ctx, in.prompter, workDir, name)
		if err != nil {
			return nil, err
		}
		in.reporter.Info(fmt.Sprintf("开始安装(%s)小真寻...", choice.Label))
		switch method {
		case InstallMethodGit:
			err = in.cloneInstall(ctx, workDir, name)
		case InstallMethodDownload:
			err = in.downloadInstall(ctx, workDir, name)
		}
		if err != nil {
			return nil, err
		}
	} else {
		in.log.Debug("reusing existing project directory", "name", name)
	}

	projectDir := filepath.Join(workDir, name)
	result := &CreateResult{
		Installation: Installation{Name: name, Path: projectDir, Method: method, Reused: reuse},
	}

	result.Env, err = in.setupEnv(ctx, projectDir)
	if err != nil {
		return nil, err
	}

	install, err := in.prompter.Confirm(ctx, PromptInstallDeps, true)
	if err != nil {
		return nil, err
	}
	if install {
		if err := in.InstallDependencies(ctx, projectDir, python, indexURL); err != nil {
			return nil, err
		}
		result.DepsInstalled = true
	}

	if !dirExists(projectDir) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInstallation, projectDir)
	}
	return result, nil
}

func (in *Installer) cloneInstall(ctx context.Context, workDir, name string) error {
	sources := in.cfg.CloneSources
	if len(sources) == 0 {
		return fmt.Errorf("no clone sources configured")
	}
	options := make([]Option, len(sources))
	for i, s := range sources {
		options[i] = Option{Label: s.Name, Value: s.URL}
	}
	def := 0
	if len(options) > 1 {
		def = 1
	}

	choice, err := in.prompter.Select(ctx, PromptCloneSource, options, def)
	if err != nil {
		return err
	}
	src := CloneSource{Name: choice.Label, URL: choice.Value}

	in.reporter.Info(fmt.Sprintf("在 %s 文件夹克隆源码...", name))
	cmd := CloneCommand(src, name)
	cmd.Dir = workDir
	cmd.Stdout = in.stdout
	tail := newTailBuffer(cloneOutputTail)
	cmd.Stderr = io.MultiWriter(in.stderr, tail)

	in.log.Debug("running", "cmd", cmd.String(), "dir", workDir)
	code, err := in.runChild(ctx, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return ClassifyCloneError(src, cmd.String(), code, tail.String())
	}
	in.reporter.Success(fmt.Sprintf("%s 克隆完成！", name))
	return nil
}

func (in *Installer) downloadInstall(ctx context.Context, workDir, name string) error {
	in.reporter.Info("开始下载小真寻项目...")
	info, err := ParseRepoURL(in.cfg.Repository)
	if err != nil {
		return fmt.Errorf("parsing repository: %w", err)
	}

	urls := in.locator.ArchiveURLs(ctx, info)
	if len(urls) == 0 {
		in.reporter.Warn("获取下载链接失败...")
		return ErrNoArchiveURL
	}

	tmpDir := filepath.Join(workDir, tmpDirName)
	if err := os.RemoveAll(tmpDir); err != nil {
		return fmt.Errorf("clearing %s: %w", tmpDir, err)
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", tmpDir, err)
	}
	archive := filepath.Join(tmpDir, archiveFileName)

	dl, err := in.fetcher.Download(ctx, urls, archive, DownloadOptions{
		Timeout:  in.cfg.DownloadTimeout(),
		UseProxy: true,
		Proxy:    in.cfg.Proxy,
		Stream:   true,
		Progress: in.progress,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		in.reporter.Error("下载真寻最新版文件失败...")
		return err
	}
	in.reporter.Success("下载真寻最新版文件完成！")

	in.reporter.Info("开始解压下载文件...")
	root := in.locator.ArchiveRootFor(info, dl.URL)
	res, err := Unpack(archive, workDir, root, name, tmpDir)
	if err != nil {
		return fmt.Errorf("unpacking: %w", err)
	}
	if !res.Renamed {
		in.log.Warn("archive root not found", "root", root, "project", name)
		in.reporter.Warn(fmt.Sprintf("压缩包中未找到 %s 文件夹，未能重命名为 %s", root, name))
	}
	in.reporter.Success("解压下载完成！")
	return nil
}

func (in *Installer) setupEnv(ctx context.Context, projectDir string) (*EnvResult, error) {
	if !fileExists(filepath.Join(projectDir, envFileName)) {
		in.reporter.Error(fmt.Sprintf("未找到配置文件 %s", filepath.Join(projectDir, envFileName)))
		return nil, fmt.Errorf("%w: %s", ErrEnvFileMissing, filepath.Join(projectDir, envFileName))
	}

	superusers, err := in.prompter.Input(ctx, PromptSuperusers, "", ValidateSuperusers)
	if err != nil {
		return nil, err
	}
	dbURL, err := in.prompter.Input(ctx, PromptDBURL, "", ValidateDBURL)
	if err != nil {
		return nil, err
	}

	return ConfigureEnv(projectDir, EnvSettings{Superusers: superusers, DBURL: dbURL})
}

// InstallDependencies installs poetry with pip and then the project's
// dependencies with poetry, both inside projectDir.
func (in *Installer) InstallDependencies(ctx context.Context, projectDir, python, indexURL string) error {
	steps := []struct {
		start, done string
		argv        []string
	}{
		{"开始安装Poetry包管理器...", "安装Poetry包管理器完成！", PipInstallPoetryArgs(python, indexURL)},
		{"开始尝试安装小真寻依赖...", "安装小真寻依赖完成！", PoetryInstallArgs(python)},
	}

	for _, step := range steps {
		in.reporter.Info(step.start)
		cmd := Command{Argv: step.argv, Dir: projectDir, Stdout: in.stdout, Stderr: in.stderr}
		in.log.Debug("running", "cmd", cmd.String(), "dir", projectDir)

		code, err := in.runChild(ctx, cmd)
		if err != nil {
			return fmt.Errorf("running %s: %w", cmd.String(), err)
		}
		if code != 0 {
			return &ExitError{Command: cmd.String(), Code: code}
		}
		in.reporter.Success(step.done)
	}
	return nil
}

// RunBotOptions configures Installer.Run.
type RunBotOptions struct {
	Dir    string
	Python string
	Signal RunOptions
}

// Run starts the bot in opts.Dir and forwards interrupt signals to it. It
// refuses to start when the directory is not an installation.
func (in *Installer) Run(ctx context.Context, opts RunBotOptions) (*RunResult, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := ValidateInstallation(dir); err != nil {
		in.reporter.Error("未检测到该目录下有小真寻，请确保目录无误")
		return nil, err
	}

	project, err := LoadPyProject(dir)
	if err != nil {
		in.log.Warn("reading pyproject failed", "error", err)
	} else if project != nil && project.Name != "" {
		in.reporter.Info(fmt.Sprintf("启动 %s %s", project.Name, project.Version))
	}

	python := opts.Python
	if python == "" {
		python = DefaultPython()
	}
	cmd := Command{
		Argv:   PoetryRunBotArgs(python),
		Dir:    dir,
		Stdout: in.stdout,
		Stderr: in.stderr,
	}
	in.log.Debug("running", "cmd", cmd.String(), "dir", dir)
	return RunWithSignalForwarding(ctx, cmd, opts.Signal)
}

// NextSteps returns the markdown shown after a successful create.
func NextSteps(name string, depsInstalled bool) string {
	var b strings.Builder
	if depsInstalled {
		b.WriteString("## 一切准备就绪\n\n")
	} else {
		b.WriteString("## 请先安装依赖\n\n")
		b.WriteString("在项目根目录手动安装环境：\n\n")
		b.WriteString("```sh\npoetry install\n```\n\n")
	}
	b.WriteString("然后启动小真寻吧：\n\n")
	fmt.Fprintf(&b, "```sh\ncd %s\npoetry run python bot.py\n```\n\n", name)
	b.WriteString("或\n\n")
	fmt.Fprintf(&b, "```sh\nzhenxun run -d %s\n```\n", name)
	return b.String()
}
