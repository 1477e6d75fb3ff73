//go:build !windows

package gate

import (
	"os/exec"
	"syscall"
)

// killProcessGroup runs cmd in its own process group and makes cancellation
// kill the whole group, so wrapper scripts cannot leave the real tool running.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
