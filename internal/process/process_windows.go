//go:build windows

package process

import (
	"os/exec"
	"time"

	"golang.org/x/sys/windows"
)

// configureContainment creates the child in a new process group. No Job
// Object is created, so the child's descendants are not contained.
func configureContainment(cmd *exec.Cmd) {
	cmd.SysProcAttr = &windows.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
}

// killTree terminates the direct child process only; descendants it has
// spawned are not killed.
func killTree(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

// PostKillSettleDelay: the OS holds file handles briefly after a kill on
// Windows; the profile directory removal must wait this long first.
const PostKillSettleDelay = 100 * time.Millisecond
