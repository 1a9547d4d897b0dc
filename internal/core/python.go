package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
)

// Minimum interpreter version the bot supports.
const (
	MinPythonMajor = 3
	MinPythonMinor = 10
)

var pythonVersionRegexp = regexp.MustCompile(`Python (\d+)\.(\d+)(?:\.(\d+))?`)

// PythonVersion is a parsed `python --version` line.
type PythonVersion struct {
	Major, Minor, Patch int
}

func (v PythonVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= major.minor.
func (v PythonVersion) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// ParsePythonVersion extracts the version from interpreter output such as
// "Python 3.11.4".
func ParsePythonVersion(out string) (PythonVersion, error) {
	m := pythonVersionRegexp.FindStringSubmatch(out)
	if m == nil {
		return PythonVersion{}, fmt.Errorf("unrecognised python version output %q", out)
	}
	var v PythonVersion
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// CheckPython runs `<python> --version` and returns ErrPythonTooOld when it
// is older than MinPythonMajor.MinPythonMinor.
func CheckPython(ctx context.Context, run commandRunner, python string) (PythonVersion, error) {
	if run == nil {
		run = runWithTimeout
	}
	out, err := run(ctx, python, "--version")
	if err != nil {
		return PythonVersion{}, fmt.Errorf("running %s --version: %w", python, err)
	}
	v, err := ParsePythonVersion(out)
	if err != nil {
		return PythonVersion{}, err
	}
	if !v.AtLeast(MinPythonMajor, MinPythonMinor) {
		return v, fmt.Errorf("%w: found %s, need %d.%d or newer", ErrPythonTooOld, v, MinPythonMajor, MinPythonMinor)
	}
	return v, nil
}

// DefaultPython picks the interpreter: the active virtualenv first, then
// python3 and python from PATH.
func DefaultPython() string {
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		p := filepath.Join(venv, "bin", "python")
		if runtime.GOOS == "windows" {
			p = filepath.Join(venv, "Scripts", "python.exe")
		}
		if fileExists(p) {
			return p
		}
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return "python"
}

// PipInstallPoetryArgs returns the argv that installs poetry.
func PipInstallPoetryArgs(python, indexURL string) []string {
	argv := []string{python, "-m", "pip", "install", "poetry"}
	if indexURL != "" {
		argv = append(argv, "-i", indexURL)
	}
	return argv
}

// PoetryInstallArgs returns the argv that installs the project dependencies.
func PoetryInstallArgs(python string) []string {
	return []string{python, "-m", "poetry", "install"}
}

// PoetryRunBotArgs returns the argv that starts the bot.
func PoetryRunBotArgs(python string) []string {
	return []string{python, "-m", "poetry", "run", "bot.py"}
}
