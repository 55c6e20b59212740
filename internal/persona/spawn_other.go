//go:build !unix

package persona

import (
	"errors"
	"os/exec"
	"syscall"
)

func sysProcAttr(a *spawnAttr) (*syscall.SysProcAttr, error) {
	return nil, errors.ErrUnsupported
}

func exitStatus(cmd *exec.Cmd, waitErr error, r *Result) error {
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return waitErr
	}
	r.ExitCode = cmd.ProcessState.ExitCode()
	return nil
}
