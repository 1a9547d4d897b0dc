package core

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeChildren records spawned commands instead of running them.
type fakeChildren struct {
	mu    sync.Mutex
	cmds  []Command
	codes map[string]int        // exit code by command line, default 0
	hook  func(c Command) error // runs before the exit code is returned
}

func (f *fakeChildren) run(_ context.Context, c Command) (int, error) {
	f.mu.Lock()
	f.cmds = append(f.cmds, c)
	f.mu.Unlock()
	if f.hook != nil {
		if err := f.hook(c); err != nil {
			return -1, err
		}
	}
	return f.codes[c.String()], nil
}

func (f *fakeChildren) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cmds))
	for i, c := range f.cmds {
		out[i] = c.String()
	}
	return out
}

func okProbe(_ context.Context, name string, _ ...string) (string, error) {
	if name == "git" {
		return "git version 2.43.0", nil
	}
	return "Python 3.11.4", nil
}

func newTestInstaller(t *testing.T, cfg *Config, client *http.Client, answers ...string) (*Installer, *fakeChildren, *recordingReporter) {
	t.Helper()
	rep := &recordingReporter{}
	inst, err := NewInstaller(InstallerOptions{
		Config:     cfg,
		Prompter:   newScriptedPrompter(answers...),
		Reporter:   rep,
		HTTPClient: client,
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("NewInstaller() error: %v", err)
	}
	children := &fakeChildren{codes: map[string]int{}}
	inst.probe = okProbe
	inst.runChild = children.run
	return inst, children, rep
}

// projectZip builds an archive shaped like a GitHub branch download.
func projectZip(t *testing.T, root string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		root + "/bot.py":              "import nonebot\n",
		root + "/zhenxun/__init__.py": "",
		root + "/.env.dev":            envTemplate,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func archiveServer(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/HibiKier/zhenxun_bot/commits/main", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sha":"0123abcd"}`))
	})
	mux.HandleFunc("/archive/HibiKier/zhenxun_bot/main.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/sha/0123abcd.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestInstallerCreate_Download(t *testing.T) {
	srv := archiveServer(t, projectZip(t, "zhenxun_bot-main"))
	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.ArchiveMirrors = []string{srv.URL + "/archive/{owner}/{repo}/{branch}.zip"}

	inst, children, _ := newTestInstaller(t, cfg, srv.Client(),
		"download", // method
		"",         // project name: default
		"123456 654321",
		"",  // db url: sqlite
		"n", // skip dependency install
	)

	work := t.TempDir()
	res, err := inst.Create(context.Background(), CreateOptions{WorkDir: work, Python: "python3"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	project := filepath.Join(work, "zhenxun_bot")
	if res.Installation.Path != project || res.Installation.Method != InstallMethodDownload {
		t.Errorf("installation = %+v", res.Installation)
	}
	if err := ValidateInstallation(project); err != nil {
		t.Errorf("ValidateInstallation() = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(project, ".env.dev"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `SUPERUSERS=["123456", "654321"]`) {
		t.Errorf(".env.dev not configured:\n%s", data)
	}
	if dirExists(filepath.Join(work, "tmp")) {
		t.Error("tmp staging dir left behind")
	}
	if dirExists(filepath.Join(work, "zhenxun_bot-main")) {
		t.Error("archive root was not renamed")
	}
	if res.DepsInstalled || len(children.commands()) != 0 {
		t.Errorf("unexpected children: %v", children.commands())
	}
}

func TestInstallerCreate_DownloadByCommitRenamesRoot(t *testing.T) {
	srv := archiveServer(t, projectZip(t, "zhenxun_bot-0123abcd"))
	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.ArchiveMirrors = []string{srv.URL + "/sha/{sha}.zip"}

	inst, _, _ := newTestInstaller(t, cfg, srv.Client(), "download", "", "", "", "n")
	work := t.TempDir()
	if _, err := inst.Create(context.Background(), CreateOptions{WorkDir: work, Python: "python3"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := ValidateInstallation(filepath.Join(work, "zhenxun_bot")); err != nil {
		t.Errorf("ValidateInstallation() = %v", err)
	}
	if dirExists(filepath.Join(work, "zhenxun_bot-0123abcd")) {
		t.Error("commit archive root was not renamed")
	}
}

func TestInstallerCreate_DownloadAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL

	inst, _, rep := newTestInstaller(t, cfg, srv.Client(), "download", "")
	work := t.TempDir()
	_, err := inst.Create(context.Background(), CreateOptions{WorkDir: work, Python: "python3"})
	if !errors.Is(err, ErrNoArchiveURL) {
		t.Fatalf("error = %v, want ErrNoArchiveURL", err)
	}
	if dirExists(filepath.Join(work, "zhenxun_bot")) {
		t.Error("project dir should not exist")
	}
	found := false
	for _, m := range rep.messages() {
		if strings.Contains(m, "获取下载链接失败") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing failure message in %v", rep.messages())
	}
}

func TestInstallerCreate_GitWithDependencies(t *testing.T) {
	inst, children, _ := newTestInstaller(t, DefaultConfig(), nil,
		"git",
		"mybot",
		"https://ghfast.top/https://github.com/HibiKier/zhenxun_bot", // clone source
		"10001",
		"postgres://bot@localhost:5432/zhenxun",
		"y",
	)
	work := t.TempDir()
	children.hook = func(c Command) error {
		if c.Argv[0] != "git" {
			return nil
		}
		// Pretend git cloned the repository.
		dir := filepath.Join(c.Dir, c.Argv[len(c.Argv)-1])
		if err := os.MkdirAll(filepath.Join(dir, "zhenxun"), 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, ".env.dev"), []byte(envTemplate), 0o644)
	}

	res, err := inst.Create(context.Background(), CreateOptions{WorkDir: work, Python: "py", IndexURL: "https://idx/simple"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !res.DepsInstalled {
		t.Error("DepsInstalled = false")
	}

	want := []string{
		"git clone --depth=1 --single-branch https://ghfast.top/https://github.com/HibiKier/zhenxun_bot mybot",
		"py -m pip install poetry -i https://idx/simple",
		"py -m poetry install",
	}
	got := children.commands()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("commands =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	data, _ := os.ReadFile(filepath.Join(work, "mybot", ".env.dev"))
	if !strings.Contains(string(data), `DB_URL = "postgres://bot@localhost:5432/zhenxun"`) {
		t.Errorf(".env.dev:\n%s", data)
	}
}

func TestInstallerCreate_GitCloneFails(t *testing.T) {
	inst, children, _ := newTestInstaller(t, DefaultConfig(), nil,
		"git", "", "https://github.com/HibiKier/zhenxun_bot")
	children.codes["git clone --depth=1 --single-branch https://github.com/HibiKier/zhenxun_bot zhenxun_bot"] = 128

	_, err := inst.Create(context.Background(), CreateOptions{WorkDir: t.TempDir(), Python: "py"})
	var ce *CloneError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CloneError", err)
	}
	if ce.ExitCode != 128 {
		t.Errorf("ExitCode = %d", ce.ExitCode)
	}
}

func TestInstallerCreate_ReuseSkipsFetch(t *testing.T) {
	work := t.TempDir()
	project := filepath.Join(work, "zhenxun_bot")
	if err := os.MkdirAll(filepath.Join(project, "zhenxun"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ".env.dev"), []byte(envTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	inst, children, _ := newTestInstaller(t, DefaultConfig(), nil,
		"git", "zhenxun_bot[use]", "", "", "n")
	res, err := inst.Create(context.Background(), CreateOptions{WorkDir: work, Python: "py"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !res.Installation.Reused || res.Installation.Name != "zhenxun_bot" {
		t.Errorf("installation = %+v", res.Installation)
	}
	if len(children.commands()) != 0 {
		t.Errorf("reuse should not spawn anything, got %v", children.commands())
	}
}

func TestInstallerCreate_MissingEnvFile(t *testing.T) {
	work := t.TempDir()
	if err := os.Mkdir(filepath.Join(work, "zhenxun_bot"), 0o755); err != nil {
		t.Fatal(err)
	}
	inst, _, _ := newTestInstaller(t, DefaultConfig(), nil, "download", "zhenxun_bot[use]")
	_, err := inst.Create(context.Background(), CreateOptions{WorkDir: work, Python: "py"})
	if !errors.Is(err, ErrEnvFileMissing) {
		t.Errorf("error = %v, want ErrEnvFileMissing", err)
	}
}

func TestInstallerCreate_PythonTooOld(t *testing.T) {
	inst, _, _ := newTestInstaller(t, DefaultConfig(), nil)
	inst.probe = fakeRunner("Python 3.9.7", nil)

	_, err := inst.Create(context.Background(), CreateOptions{WorkDir: t.TempDir(), Python: "py"})
	if !errors.Is(err, ErrPythonTooOld) {
		t.Errorf("error = %v, want ErrPythonTooOld", err)
	}
}

func TestInstallerCreate_GitMissing(t *testing.T) {
	inst, _, _ := newTestInstaller(t, DefaultConfig(), nil, "git")
	inst.probe = func(_ context.Context, name string, _ ...string) (string, error) {
		if name == "git" {
			return "", errors.New("exec: \"git\": executable file not found in $PATH")
		}
		return "Python 3.12.0", nil
	}

	_, err := inst.Create(context.Background(), CreateOptions{WorkDir: t.TempDir(), Python: "py"})
	if !errors.Is(err, ErrGitMissing) {
		t.Errorf("error = %v, want ErrGitMissing", err)
	}
}

func TestInstallerCreate_CancelledPrompt(t *testing.T) {
	inst, _, _ := newTestInstaller(t, DefaultConfig(), nil) // no answers
	_, err := inst.Create(context.Background(), CreateOptions{WorkDir: t.TempDir(), Python: "py"})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("error = %v, want ErrCancelled", err)
	}
}

func TestInstallDependencies_StopsOnFailure(t *testing.T) {
	inst, children, _ := newTestInstaller(t, DefaultConfig(), nil)
	children.codes["py -m pip install poetry"] = 1

	err := inst.InstallDependencies(context.Background(), t.TempDir(), "py", "")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("error = %v, want *ExitError with code 1", err)
	}
	if n := len(children.commands()); n != 1 {
		t.Errorf("ran %d commands, want 1", n)
	}
}

func TestInstallerRun_InvalidInstallation(t *testing.T) {
	inst, _, _ := newTestInstaller(t, DefaultConfig(), nil)
	_, err := inst.Run(context.Background(), RunBotOptions{Dir: t.TempDir(), Python: "py"})
	if !errors.Is(err, ErrInvalidInstallation) {
		t.Errorf("error = %v, want ErrInvalidInstallation", err)
	}
}

func TestNextSteps(t *testing.T) {
	ready := NextSteps("mybot", true)
	if !strings.Contains(ready, "cd mybot") || strings.Contains(ready, "poetry install") {
		t.Errorf("ready text:\n%s", ready)
	}
	manual := NextSteps("mybot", false)
	if !strings.Contains(manual, "poetry install") {
		t.Errorf("manual text:\n%s", manual)
	}
}
