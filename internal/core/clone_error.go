package core

import (
	"fmt"
	"strings"
)

// CloneErrorKind classifies why a git clone failed.
type CloneErrorKind int

const (
	// CloneErrUnknown is an unclassified clone failure.
	CloneErrUnknown CloneErrorKind = iota
	// CloneErrNetwork means the remote could not be reached or the transfer
	// broke off. Mirrors in mainland China fail this way most often.
	CloneErrNetwork
	// CloneErrRepoNotFound means the URL does not point at a repository.
	CloneErrRepoNotFound
	// CloneErrAuth means the remote asked for credentials.
	CloneErrAuth
	// CloneErrDestination means the target directory is unusable.
	CloneErrDestination
	// CloneErrInterrupted means git was stopped by a signal.
	CloneErrInterrupted
)

func (k CloneErrorKind) String() string {
	switch k {
	case CloneErrNetwork:
		return "Network Error"
	case CloneErrRepoNotFound:
		return "Repository Not Found"
	case CloneErrAuth:
		return "Authentication Required"
	case CloneErrDestination:
		return "Destination Error"
	case CloneErrInterrupted:
		return "Interrupted"
	default:
		return "Unknown Error"
	}
}

// CloneError is returned when git clone exits non-zero.
type CloneError struct {
	Kind     CloneErrorKind
	Source   string // clone source display name
	URL      string
	Command  string
	ExitCode int
	Output   string
	Hints    []string
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("git clone failed (%s, exit %d): %s", e.Kind, e.ExitCode, e.firstLine())
}

func (e *CloneError) firstLine() string {
	for _, line := range strings.Split(e.Output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "Cloning into") {
			return line
		}
	}
	return "no output"
}

// ClassifyCloneError builds a CloneError from the exit code and the tail
// of git's output.
func ClassifyCloneError(src CloneSource, command string, exitCode int, output string) *CloneError {
	kind := classifyCloneOutput(output)
	if kind == CloneErrUnknown && exitCode < 0 {
		kind = CloneErrInterrupted
	}
	return &CloneError{
		Kind:     kind,
		Source:   src.Name,
		URL:      src.URL,
		Command:  command,
		ExitCode: exitCode,
		Output:   strings.TrimSpace(output),
		Hints:    cloneHints(kind),
	}
}

func classifyCloneOutput(output string) CloneErrorKind {
	lower := strings.ToLower(output)

	switch {
	case containsAny(lower,
		"already exists and is not an empty directory",
		"could not create work tree"):
		return CloneErrDestination

	case containsAny(lower,
		"could not read username",
		"could not read password",
		"authentication failed",
		"error: 401",
		"error: 403"):
		return CloneErrAuth

	case containsAny(lower,
		"repository not found",
		"does not appear to be a git repository",
		"error: 404"):
		return CloneErrRepoNotFound

	case containsAny(lower,
		"could not resolve host",
		"connection refused",
		"connection timed out",
		"operation timed out",
		"failed to connect",
		"network is unreachable",
		"early eof",
		"rpc failed",
		"ssl_error",
		"gnutls_handshake",
		"remote end hung up"):
		return CloneErrNetwork
	}
	return CloneErrUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func cloneHints(kind CloneErrorKind) []string {
	switch kind {
	case CloneErrNetwork:
		return []string{
			"Pick another clone source; the mirrors are usually faster from mainland China",
			"Or use the download method, which tries every archive mirror in turn",
		}
	case CloneErrRepoNotFound:
		return []string{
			"Check the clone URL; a custom source must point at the zhenxun_bot repository",
		}
	case CloneErrAuth:
		return []string{
			"The repository is public, so a credential prompt usually means the mirror URL is wrong",
		}
	case CloneErrDestination:
		return []string{
			"Remove the project directory or choose another project name",
		}
	case CloneErrInterrupted:
		return []string{
			"The clone was stopped before it finished; run create again",
		}
	default:
		return []string{
			"Run the printed git command by hand to see the full error",
		}
	}
}
