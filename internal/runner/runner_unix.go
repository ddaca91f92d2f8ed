//go:build !windows

package runner

import (
	"os"
	"syscall"
)

// setUmask makes file creation permissive; the daemon's files get the
// modes its workload asks for, not ones inherited from the launcher's
// shell.
func setUmask() {
	syscall.Umask(0)
}

// bindStdio points fd 0 at the null device and fds 1/2 at the daemon
// log, append-only and unbuffered. The detach already wired these, but
// the daemon process owns its stdio and rebinding here keeps that true
// even when Run is invoked outside the normal detach path.
func bindStdio(logPath string) error {
	null, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer func() { _ = null.Close() }()
	if err := syscall.Dup2(int(null.Fd()), 0); err != nil {
		return err
	}

	if logPath == "" {
		return nil
	}
	// #nosec G304
	logF, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	defer func() { _ = logF.Close() }()
	if err := syscall.Dup2(int(logF.Fd()), 1); err != nil {
		return err
	}
	return syscall.Dup2(int(logF.Fd()), 2)
}
