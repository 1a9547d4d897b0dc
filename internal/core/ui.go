package core

import "context"

// Option is one entry of a selection prompt.
type Option struct {
	Label string
	Value string
}

// Prompter asks the user questions. Implementations return ErrCancelled when
// the user aborts a prompt.
type Prompter interface {
	Select(ctx context.Context, title string, options []Option, defaultIdx int) (Option, error)
	Input(ctx context.Context, title, defaultValue string, validate func(string) error) (string, error)
	Confirm(ctx context.Context, title string, defaultYes bool) (bool, error)
}

// Reporter narrates progress to the user.
type Reporter interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Success(msg string)
}

// ProgressSink creates progress trackers for long transfers.
type ProgressSink interface {
	// Start begins tracking a transfer. total <= 0 means the size is unknown.
	Start(name string, total int64) ProgressTracker
}

// ProgressTracker receives updates for one transfer.
type ProgressTracker interface {
	Update(done int64)
	Finish(err error)
}

type nopReporter struct{}

func (nopReporter) Info(string)    {}
func (nopReporter) Warn(string)    {}
func (nopReporter) Error(string)   {}
func (nopReporter) Success(string) {}

// NopReporter discards every message.
var NopReporter Reporter = nopReporter{}

type nopProgress struct{}

func (nopProgress) Start(string, int64) ProgressTracker { return nopProgress{} }
func (nopProgress) Update(int64)                        {}
func (nopProgress) Finish(error)                        {}

// NopProgress discards progress updates.
var NopProgress ProgressSink = nopProgress{}

// Titles of the questions asked by the create flow. Callers that answer
// questions without a terminal key their answers by these titles.
const (
	PromptInstallMethod = "需要使用哪种安装方式?"
	PromptProjectName   = "项目名称:"
	PromptConflict      = "当前目录下已存在同名项目文件夹，如何操作?"
	PromptRenameProject = "新的项目名称:"
	PromptCloneSource   = "要使用的克隆源?"
	PromptSuperusers    = "超级用户QQ(即你自己的QQ号，多个用空格隔开):"
	PromptDBURL         = "请输入数据库连接地址（为空则使用sqlite）:"
	PromptInstallDeps   = "是否立刻安装依赖?"
)
