package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/cmd/zhenxun/cmd"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"zhenxun": func() {
			if err := cmd.Execute(); err != nil {
				os.Exit(cmd.ReportError(os.Stderr, err))
			}
		},
	})
}

func TestScript(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:                 filepath.Join("testdata", "script"),
		RequireExplicitExec: true,
		Setup: func(e *testscript.Env) error {
			// Set HOME to WORK so ~/.zhenxun/ is created inside the temp dir
			e.Vars = append(e.Vars, "HOME="+e.WorkDir)
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// file-contains asserts that a file contains (or doesn't contain) a substring.
			// Usage: [!] file-contains <path> <substring>
			"file-contains": cmdFileContains,

			// serve-archive serves <dir> as the branch archive of the default
			// repository and points ~/.zhenxun/config.json at the server.
			// Usage: serve-archive <dir>
			"serve-archive": cmdServeArchive,

			// setup-git-repo commits <dir> into a fresh git repository and
			// registers it as the only clone source named "local".
			// Usage: setup-git-repo <dir>
			"setup-git-repo": cmdSetupGitRepo,
		},
	})
}

// cmdFileContains checks if a file contains a substring.
func cmdFileContains(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) < 2 {
		ts.Fatalf("usage: file-contains <path> <substring>")
	}
	path := ts.MkAbs(args[0])
	substr := args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		ts.Fatalf("reading %s: %v", args[0], err)
	}

	contains := strings.Contains(string(data), substr)
	if neg {
		if contains {
			ts.Fatalf("file %s contains %q (expected not to)", args[0], substr)
		}
	} else {
		if !contains {
			ts.Fatalf("file %s does not contain %q\nContent:\n%s", args[0], substr, string(data))
		}
	}
}

// Archive layout of the default repository (HibiKier/zhenxun_bot, branch main).
const (
	archiveOwner = "HibiKier"
	archiveRepo  = "zhenxun_bot"
	archiveRoot  = "zhenxun_bot-main"
)

// cmdServeArchive zips a directory and serves it like the hosting API.
func cmdServeArchive(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("serve-archive does not support negation")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: serve-archive <dir>")
	}

	archive, err := zipDir(ts.MkAbs(args[0]), archiveRoot)
	if err != nil {
		ts.Fatalf("zipping %s: %v", args[0], err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+archiveOwner+"/"+archiveRepo+"/commits/main", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sha":"0123abcd"}`))
	})
	mux.HandleFunc("/archive/"+archiveOwner+"/"+archiveRepo+"/main.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	ts.Defer(srv.Close)

	writeConfig(ts, map[string]any{
		"apiBaseURL":     srv.URL,
		"archiveMirrors": []string{srv.URL + "/archive/{owner}/{repo}/{branch}.zip"},
	})
}

// zipDir archives every file below dir under the given root prefix.
func zipDir(dir, root string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		w, err := zw.Create(root + "/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cmdSetupGitRepo turns a directory into a git repository on branch main.
func cmdSetupGitRepo(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("setup-git-repo does not support negation")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: setup-git-repo <dir>")
	}
	dir := ts.MkAbs(args[0])

	gitEnv := append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)

	runGit := func(gitArgs ...string) {
		c := exec.Command("git", gitArgs...)
		c.Dir = dir
		c.Env = gitEnv
		out, err := c.CombinedOutput()
		if err != nil {
			ts.Fatalf("git %v: %v\n%s", gitArgs, err, out)
		}
	}

	runGit("init")
	runGit("symbolic-ref", "HEAD", "refs/heads/main")
	runGit("add", ".")
	runGit("commit", "-m", "initial")

	writeConfig(ts, map[string]any{
		"cloneSources": []map[string]string{
			{"name": "local", "url": "file://" + filepath.ToSlash(dir)},
		},
	})
}

// writeConfig merges fields into $HOME/.zhenxun/config.json.
func writeConfig(ts *testscript.TestScript, fields map[string]any) {
	configDir := filepath.Join(ts.Getenv("HOME"), ".zhenxun")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		ts.Fatalf("creating config dir: %v", err)
	}
	path := filepath.Join(configDir, "config.json")

	cfg := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			ts.Fatalf("parsing config: %v", err)
		}
	}
	for k, v := range fields {
		cfg[k] = v
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		ts.Fatalf("marshaling config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		ts.Fatalf("writing config: %v", err)
	}
}
