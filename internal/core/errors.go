package core

import "errors"

var (
	// ErrCancelled means the user declined or aborted a prompt.
	ErrCancelled = errors.New("cancelled by user")

	// ErrDownloadFailed means every attempt of a download failed.
	ErrDownloadFailed = errors.New("download failed")

	// ErrNoArchiveURL means the source locator could not produce a URL.
	ErrNoArchiveURL = errors.New("no archive download URL available")

	// ErrEnvFileMissing means the project has no .env.dev to configure.
	ErrEnvFileMissing = errors.New("environment file not found")

	// ErrInvalidInstallation means a directory does not look like the bot.
	ErrInvalidInstallation = errors.New("not a valid zhenxun installation")

	// ErrPythonTooOld means the interpreter is older than the minimum version.
	ErrPythonTooOld = errors.New("python version too old")

	// ErrGitMissing means git could not be executed.
	ErrGitMissing = errors.New("git not found")
)
