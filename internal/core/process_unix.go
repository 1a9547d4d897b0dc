//go:build !windows

package core

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// ShutdownSignals end a CLI invocation and the children it started.
var ShutdownSignals = []os.Signal{os.Interrupt, unix.SIGTERM, unix.SIGHUP}

// setProcessGroup puts the child in a process group of its own so signals
// reach its whole tree and terminal job control leaves it alone.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateGroup(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

func killGroup(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	err := unix.Kill(-p.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
