//go:build unix

package childproc

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup runs the worker in its own group so Kill reaches the
// test processes it spawns.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return cmd.Process.Kill()
	}

	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}

	return nil
}

// exitStatus returns the exit code and the terminating signal name, if any.
func exitStatus(state *os.ProcessState) (int, string) {
	if state == nil {
		return -1, ""
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -1, ws.Signal().String()
	}

	return state.ExitCode(), ""
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
