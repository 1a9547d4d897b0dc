// Package core provides the business logic for the zhenxun installer.
// It has zero UI dependencies and is independently testable: prompts,
// progress bars and coloured output are reached through the interfaces
// declared in ui.go.
package core

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the installer configuration stored at ~/.zhenxun/config.json.
type Config struct {
	// Repository is the hosting tree URL of the bot project
	// (e.g. "https://github.com/HibiKier/zhenxun_bot/tree/main").
	Repository string `json:"repository"`

	// APIBaseURL is the GitHub REST API root used by the source locator.
	APIBaseURL string `json:"apiBaseURL"`

	// GitHubToken is sent as a bearer token when set. GITHUB_TOKEN from the
	// environment takes precedence.
	GitHubToken string `json:"githubToken,omitempty"`

	// IndexURL is the pip index used when installing poetry.
	IndexURL string `json:"indexURL"`

	// DownloadTimeoutSeconds bounds every single HTTP request of a download.
	DownloadTimeoutSeconds int `json:"downloadTimeoutSeconds"`

	// Proxy is an explicit proxy URL for downloads. Empty means use the
	// environment (HTTP_PROXY / HTTPS_PROXY).
	Proxy string `json:"proxy,omitempty"`

	// ArchiveMirrors are archive URL templates. Empty means the built-in catalog.
	ArchiveMirrors []string `json:"archiveMirrors,omitempty"`

	// CloneSources are git remotes offered for git installs. Empty means the
	// built-in catalog.
	CloneSources []CloneSource `json:"cloneSources,omitempty"`
}

// DownloadTimeout returns the per-request timeout as a duration.
func (c *Config) DownloadTimeout() time.Duration {
	if c.DownloadTimeoutSeconds <= 0 {
		return defaultDownloadTimeout
	}
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// CloneSource is one git remote the user can clone the project from.
type CloneSource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// InstallMethod is how the project files are obtained.
type InstallMethod string

const (
	InstallMethodGit      InstallMethod = "git"
	InstallMethodDownload InstallMethod = "download"
)

// ParseInstallMethod validates a user-supplied method name.
func ParseInstallMethod(s string) (InstallMethod, error) {
	switch InstallMethod(s) {
	case InstallMethodGit, InstallMethodDownload:
		return InstallMethod(s), nil
	}
	return "", fmt.Errorf("unknown install method %q (want git or download)", s)
}

// Installation is a project directory produced by a git or download install.
// The directory on disk is the installation; nothing else is persisted.
type Installation struct {
	Name   string
	Path   string
	Method InstallMethod
	Reused bool // true when an existing directory was adopted via the [use] suffix
}

// RepoInfo identifies one branch of a hosted repository.
type RepoInfo struct {
	Host   string
	Owner  string
	Repo   string
	Branch string
}

// ArchiveRoot is the top-level directory name the provider uses inside a
// branch archive. Slashes in branch names become dashes.
func (r RepoInfo) ArchiveRoot() string {
	return r.Repo + "-" + strings.ReplaceAll(r.Branch, "/", "-")
}

// String returns owner/repo@branch.
func (r RepoInfo) String() string {
	return r.Owner + "/" + r.Repo + "@" + r.Branch
}

// ProbeResult is one successful mirror probe.
type ProbeResult struct {
	URL           string
	Elapsed       time.Duration
	ContentLength int64
}

// DownloadResult describes a finished download.
type DownloadResult struct {
	URL      string // URL that served the file
	Path     string
	Bytes    int64
	Attempts int // per-URL attempts made, including the successful one
}

// EnvSettings are the values written into the generated .env.dev file.
type EnvSettings struct {
	Superusers string // whitespace separated account ids
	DBURL      string // empty selects the bundled sqlite database
}

// PyProject holds the fields of pyproject.toml shown before starting the bot.
type PyProject struct {
	Name    string
	Version string
}
