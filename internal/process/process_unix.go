//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// configureContainment makes the child the leader of a new process group,
// so that signaling the group kills the child and every descendant it
// spawns.
func configureContainment(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree sends SIGKILL to the whole process group.
func killTree(cmd *exec.Cmd) error {
	pgid := -cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
		// The group may already be gone; fall back to killing the leader
		// directly so Kill is idempotent against a racing exit.
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}
	return nil
}

// PostKillSettleDelay is a no-op on POSIX: only Windows needs time for the
// OS to release file handles before the profile directory can be removed.
const PostKillSettleDelay time.Duration = 0
