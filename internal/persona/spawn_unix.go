//go:build unix

package persona

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr expresses the persona request as process credentials.
// Switching to the launcher's own effective identity is a no-op and is
// skipped, since applying credentials also resets supplementary groups,
// which needs privilege.
func sysProcAttr(a *spawnAttr) (*syscall.SysProcAttr, error) {
	uid, gid := a.ctx.TargetUID, a.ctx.TargetGID
	if uid == uint32(unix.Geteuid()) && gid == uint32(unix.Getegid()) {
		return &syscall.SysProcAttr{}, nil
	}
	return &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uid, Gid: gid},
	}, nil
}

// exitStatus fills r from the wait result. Only failures of the wait itself
// are returned as errors.
func exitStatus(cmd *exec.Cmd, waitErr error, r *Result) error {
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("wait for %s: %w", cmd.Path, waitErr)
		}
	}
	if cmd.ProcessState == nil {
		return fmt.Errorf("wait for %s: no process state", cmd.Path)
	}

	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		r.ExitCode = -1
		r.Signal = unix.SignalName(ws.Signal())
		return nil
	}
	r.ExitCode = cmd.ProcessState.ExitCode()
	return nil
}
