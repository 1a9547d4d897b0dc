//go:build windows

package core

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// ShutdownSignals end a CLI invocation and the children it started.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// setProcessGroup starts the child in a new console process group so it can
// be sent a ctrl-break without hitting this process.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

func terminateGroup(p *os.Process) error {
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(p.Pid))
}

func killGroup(p *os.Process) error {
	return p.Kill()
}
