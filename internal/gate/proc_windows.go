//go:build windows

package gate

import "os/exec"

// killProcessGroup keeps the default cancellation, which kills the tool
// process. Child processes are not tracked on windows.
func killProcessGroup(cmd *exec.Cmd) {}
